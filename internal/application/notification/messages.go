package notification

import (
	"bytes"
	"strings"
	"text/template"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// message is one rendered notification
type message struct {
	Subject string
	Body    string
}

// messageData is what every template can reference
type messageData struct {
	TicketID    string
	Title       string
	Description string
	Site        string
	Priority    string
	Reporter    string
	Contractor  string
	ClosedBy    string
	Rating      int
	Code        string
}

var funcs = template.FuncMap{
	"stars": func(n int) string { return strings.Repeat("⭐", n) },
}

// Template names
const (
	tmplCreatedReporter   = "created_reporter"
	tmplCreatedAdmin      = "created_admin"
	tmplAssignedContr     = "assigned_contractor"
	tmplAssignedReporter  = "assigned_reporter"
	tmplConfirmedReporter = "confirmed_reporter"
	tmplStartedContr      = "started_contractor"
	tmplStartedReporter   = "started_reporter"
	tmplResolvedContr     = "resolved_contractor"
	tmplResolvedReporter  = "resolved_reporter"
	tmplClosedContr       = "closed_contractor"
	tmplClosedReporter    = "closed_reporter"
	tmplClosedAdmin       = "closed_admin"
	tmplResetCode         = "reset_code"
)

var subjects = map[string]string{
	tmplCreatedReporter:   "TICKET RECEIVED - {{.Title}}",
	tmplCreatedAdmin:      "NEW TICKET - {{.Title}}",
	tmplAssignedContr:     "NEW TICKET ASSIGNED - {{.Title}}",
	tmplAssignedReporter:  "TICKET ASSIGNED - {{.Title}}",
	tmplConfirmedReporter: "CONTRACTOR CONFIRMATION - {{.Title}}",
	tmplStartedContr:      "WORK STARTED - {{.Title}}",
	tmplStartedReporter:   "WORK IN PROGRESS - {{.Title}}",
	tmplResolvedContr:     "WORK COMPLETED - {{.Title}}",
	tmplResolvedReporter:  "WORK COMPLETED - {{.Title}}",
	tmplClosedContr:       "TICKET CLOSED - {{.Title}}",
	tmplClosedReporter:    "TICKET CLOSED - {{.Title}}",
	tmplClosedAdmin:       "TICKET CLOSED - {{.Title}}",
	tmplResetCode:         "Password reset code",
}

var bodies = map[string]string{
	tmplCreatedReporter: `We received your ticket #{{.TicketID}}.

📌 {{.Title}}
🏢 Site: {{.Site}}
⚠️ Priority: {{.Priority}}

You'll be notified when a contractor is assigned.`,

	tmplCreatedAdmin: `{{.Reporter}} opened ticket #{{.TicketID}}.

📌 {{.Title}}
📝 {{.Description}}
🏢 Site: {{.Site}}
⚠️ Priority: {{.Priority}}`,

	tmplAssignedContr: `You've been assigned a new ticket by {{.Reporter}}.

📌 {{.Title}}
📝 {{.Description}}
🏢 Site: {{.Site}}
⚠️ Priority: {{.Priority}}

Please confirm when you can start working on this ticket.`,

	tmplAssignedReporter: `Ticket #{{.TicketID}} was assigned to {{.Contractor}}.

We've notified them and will update you when they confirm.`,

	tmplConfirmedReporter: `{{.Contractor}} has confirmed they will work on ticket #{{.TicketID}}.

📌 {{.Title}}
🏢 Site: {{.Site}}

You can now mark the ticket as 'In Progress' when they start working.`,

	tmplStartedContr: `You've started working on ticket #{{.TicketID}}.

Please update the ticket status when you complete the work.`,

	tmplStartedReporter: `{{.Contractor}} has started working on ticket #{{.TicketID}}.

You'll be notified when the work is completed.`,

	tmplResolvedContr: `You've marked ticket #{{.TicketID}} as completed.

Waiting for site manager review and approval.`,

	tmplResolvedReporter: `{{.Contractor}} has marked ticket #{{.TicketID}} as completed.

Please review the work and close the ticket if everything is in order.`,

	tmplClosedContr: `Ticket #{{.TicketID}} has been closed by {{.ClosedBy}}.

Rating: {{stars .Rating}}

Thank you for your work!`,

	tmplClosedReporter: `Ticket #{{.TicketID}} has been closed.

Contractor: {{.Contractor}}
Rating: {{stars .Rating}}`,

	tmplClosedAdmin: `Ticket #{{.TicketID}} has been closed by {{.ClosedBy}}.

Contractor: {{.Contractor}}
Rating: {{stars .Rating}}`,

	tmplResetCode: `Your password reset code is {{.Code}}. It expires in 10 minutes.

If you did not ask for a reset, ignore this message.`,
}

// headings prefix the WhatsApp body, where there is no subject line
var headings = map[string]string{
	tmplCreatedReporter:   "🆕",
	tmplCreatedAdmin:      "🆕",
	tmplAssignedContr:     "🎯",
	tmplAssignedReporter:  "✅",
	tmplConfirmedReporter: "✅",
	tmplStartedContr:      "🚀",
	tmplStartedReporter:   "🚀",
	tmplResolvedContr:     "✅",
	tmplResolvedReporter:  "✅",
	tmplClosedContr:       "🎉",
	tmplClosedReporter:    "🎉",
	tmplClosedAdmin:       "ℹ️",
	tmplResetCode:         "🔐",
}

// templates is the parsed catalogue, keyed by name
type templates struct {
	subject *template.Template
	body    *template.Template
}

func parseTemplates() *templates {
	t := &templates{
		subject: template.New("subjects").Funcs(funcs),
		body:    template.New("bodies").Funcs(funcs),
	}
	for name, text := range subjects {
		template.Must(t.subject.New(name).Parse(text))
	}
	for name, text := range bodies {
		template.Must(t.body.New(name).Parse(text))
	}
	return t
}

func (t *templates) render(name string, data messageData) (message, error) {
	var subject, body bytes.Buffer
	if err := t.subject.ExecuteTemplate(&subject, name, data); err != nil {
		return message{}, err
	}
	if err := t.body.ExecuteTemplate(&body, name, data); err != nil {
		return message{}, err
	}
	return message{Subject: subject.String(), Body: body.String()}, nil
}

// whatsappText puts the subject on top of the body
func (m message) whatsappText(name string) string {
	heading := m.Subject
	if icon := headings[name]; icon != "" {
		heading = icon + " " + heading
	}
	return heading + "\n\n" + m.Body
}

// displayPriority turns URGENT into Urgent. Casers keep state, so one is built per call.
func displayPriority(p string) string {
	return cases.Title(language.English).String(strings.ToLower(p))
}

// excerpt shortens a description to n runes
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
