// Package notification turns ticket events into WhatsApp and email messages.
// Delivery is best effort: failures are logged and never reach the caller.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"go.uber.org/zap"
)

// Channel names used for metrics and logs
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

const descriptionExcerpt = 100

// WhatsAppSender delivers a WhatsApp text
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// EmailSender delivers a plain text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Metrics counts delivery attempts per channel
type Metrics interface {
	RecordNotification(channel string, err error)
}

// DeliveryLog remembers delivered messages for a while
type DeliveryLog interface {
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Config switches the channels on
type Config struct {
	WhatsAppEnabled bool
	EmailEnabled    bool
}

// Dispatcher subscribes to ticket events and notifies the people involved
type Dispatcher struct {
	userRepo   identity.UserRepository
	ticketRepo ticket.Repository
	siteRepo   tenancy.SiteRepository
	whatsapp   WhatsAppSender
	email      EmailSender
	metrics    Metrics
	delivered  DeliveryLog
	window     time.Duration
	config     Config
	templates  *templates
	logger     *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	userRepo identity.UserRepository,
	ticketRepo ticket.Repository,
	siteRepo tenancy.SiteRepository,
	whatsapp WhatsAppSender,
	email EmailSender,
	config Config,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		userRepo:   userRepo,
		ticketRepo: ticketRepo,
		siteRepo:   siteRepo,
		whatsapp:   whatsapp,
		email:      email,
		config:     config,
		templates:  parseTemplates(),
		logger:     logger,
	}
}

// WithMetrics sets the delivery counter
func (d *Dispatcher) WithMetrics(m Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// WithDeliveryLog makes a redelivered event skip people it already reached
// within window
func (d *Dispatcher) WithDeliveryLog(l DeliveryLog, window time.Duration) *Dispatcher {
	d.delivered = l
	d.window = window
	return d
}

// EventTypes returns the event types this handler is interested in
func (d *Dispatcher) EventTypes() []string {
	return []string{
		ticket.EventTypeTicketCreated,
		ticket.EventTypeTicketAssigned,
		ticket.EventTypeTicketConfirmed,
		ticket.EventTypeTicketStatusChanged,
	}
}

// Handle sends the notifications for one event. It always returns nil.
func (d *Dispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	var err error
	switch e := event.(type) {
	case *ticket.TicketCreatedEvent:
		err = d.ticketCreated(ctx, e)
	case *ticket.TicketAssignedEvent:
		err = d.ticketAssigned(ctx, e)
	case *ticket.TicketConfirmedEvent:
		err = d.ticketConfirmed(ctx, e)
	case *ticket.TicketStatusChangedEvent:
		err = d.statusChanged(ctx, e)
	default:
		d.logger.Warn("unexpected event type", zap.String("event_type", event.EventType()))
		return nil
	}
	if err != nil {
		d.logger.Warn("ticket notification failed",
			zap.String("event_type", event.EventType()),
			zap.String("tenant_id", event.TenantID().String()),
			zap.String("ticket_id", event.AggregateID().String()),
			zap.Error(err))
	}
	return nil
}

// DeliverResetCode sends a password reset code over the chosen channel
func (d *Dispatcher) DeliverResetCode(ctx context.Context, user *identity.User, channel identity.OTPChannel, code string) error {
	msg, err := d.templates.render(tmplResetCode, messageData{Code: code})
	if err != nil {
		return fmt.Errorf("render reset code: %w", err)
	}
	switch channel {
	case identity.OTPChannelWhatsApp:
		if user.PhoneNumber == "" {
			return shared.NewDomainError("NO_PHONE_NUMBER", "User has no phone number")
		}
		if !d.config.WhatsAppEnabled {
			return errors.New("whatsapp delivery is disabled")
		}
		err = d.whatsapp.SendWhatsApp(ctx, user.PhoneNumber, msg.whatsappText(tmplResetCode))
		d.record(ChannelWhatsApp, err)
	case identity.OTPChannelEmail:
		if user.Email == "" {
			return shared.NewDomainError("NO_EMAIL", "User has no email address")
		}
		if !d.config.EmailEnabled {
			return errors.New("email delivery is disabled")
		}
		err = d.email.SendEmail(ctx, user.Email, msg.Subject, msg.Body)
		d.record(ChannelEmail, err)
	default:
		return shared.NewDomainError("INVALID_CHANNEL", "Channel must be email or whatsapp")
	}
	return err
}

// ticketContext is everything the templates of one ticket need
type ticketContext struct {
	eventID  uuid.UUID
	ticket   *ticket.Ticket
	users    map[uuid.UUID]*identity.User
	reporter *identity.User
	assignee *identity.User
	data     messageData
}

func (d *Dispatcher) load(ctx context.Context, event shared.DomainEvent) (*ticketContext, error) {
	tenantID := event.TenantID()
	t, err := d.ticketRepo.FindByID(ctx, tenantID, event.AggregateID())
	if err != nil {
		return nil, fmt.Errorf("load ticket: %w", err)
	}

	ids := []uuid.UUID{t.CreatedBy}
	if t.AssigneeID != nil {
		ids = append(ids, *t.AssigneeID)
	}
	if t.ClosedBy != nil {
		ids = append(ids, *t.ClosedBy)
	}
	found, err := d.userRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	users := make(map[uuid.UUID]*identity.User, len(found))
	for _, u := range found {
		users[u.ID] = u
	}

	tc := &ticketContext{
		eventID:  event.EventID(),
		ticket:   t,
		users:    users,
		reporter: users[t.CreatedBy],
		data: messageData{
			TicketID:    t.ID.String(),
			Title:       t.Title,
			Description: excerpt(t.Description, descriptionExcerpt),
			Site:        "the specified site",
			Priority:    displayPriority(string(t.Priority)),
			ClosedBy:    "the site manager",
		},
	}
	if t.AssigneeID != nil {
		tc.assignee = users[*t.AssigneeID]
	}
	if tc.reporter != nil {
		tc.data.Reporter = tc.reporter.DisplayName()
	}
	if tc.assignee != nil {
		tc.data.Contractor = tc.assignee.DisplayName()
	}
	if t.ClosedBy != nil {
		if u := users[*t.ClosedBy]; u != nil {
			tc.data.ClosedBy = u.DisplayName()
		}
	}
	if t.ContractorRating != nil {
		tc.data.Rating = *t.ContractorRating
	}
	if t.SiteID != nil {
		site, err := d.siteRepo.FindByID(ctx, tenantID, *t.SiteID)
		if err != nil {
			d.logger.Warn("site lookup failed", zap.String("site_id", t.SiteID.String()), zap.Error(err))
		} else {
			tc.data.Site = site.Name
		}
	}
	return tc, nil
}

func (d *Dispatcher) ticketCreated(ctx context.Context, e *ticket.TicketCreatedEvent) error {
	tc, err := d.load(ctx, e)
	if err != nil {
		return err
	}
	d.notify(ctx, tc, tc.reporter, tmplCreatedReporter)

	admins, err := d.userRepo.FindByRole(ctx, e.TenantID(), identity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("load admins: %w", err)
	}
	for _, admin := range admins {
		if admin.ID == tc.ticket.CreatedBy {
			continue
		}
		d.notify(ctx, tc, admin, tmplCreatedAdmin)
	}
	return nil
}

func (d *Dispatcher) ticketAssigned(ctx context.Context, e *ticket.TicketAssignedEvent) error {
	tc, err := d.load(ctx, e)
	if err != nil {
		return err
	}
	d.notify(ctx, tc, tc.assignee, tmplAssignedContr)
	d.notifyReporter(ctx, tc, tmplAssignedReporter)
	return nil
}

func (d *Dispatcher) ticketConfirmed(ctx context.Context, e *ticket.TicketConfirmedEvent) error {
	tc, err := d.load(ctx, e)
	if err != nil {
		return err
	}
	d.notifyReporter(ctx, tc, tmplConfirmedReporter)
	return nil
}

// statusTemplates maps a target status to its contractor and reporter templates
var statusTemplates = map[ticket.Status][2]string{
	ticket.StatusInProgress: {tmplStartedContr, tmplStartedReporter},
	ticket.StatusResolved:   {tmplResolvedContr, tmplResolvedReporter},
	ticket.StatusClosed:     {tmplClosedContr, tmplClosedReporter},
}

func (d *Dispatcher) statusChanged(ctx context.Context, e *ticket.TicketStatusChangedEvent) error {
	names, ok := statusTemplates[e.To]
	if !ok {
		return nil
	}
	tc, err := d.load(ctx, e)
	if err != nil {
		return err
	}
	if tc.assignee == nil {
		return nil
	}
	d.notify(ctx, tc, tc.assignee, names[0])
	d.notifyReporter(ctx, tc, names[1])

	if e.To != ticket.StatusClosed {
		return nil
	}
	admins, err := d.userRepo.FindByRole(ctx, e.TenantID(), identity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("load admins: %w", err)
	}
	for _, admin := range admins {
		if admin.ID == tc.ticket.CreatedBy || admin.ID == tc.assignee.ID {
			continue
		}
		d.notify(ctx, tc, admin, tmplClosedAdmin)
	}
	return nil
}

// notifyReporter skips the reporter when they are also the assignee
func (d *Dispatcher) notifyReporter(ctx context.Context, tc *ticketContext, name string) {
	if tc.assignee != nil && tc.reporter != nil && tc.assignee.ID == tc.reporter.ID {
		return
	}
	d.notify(ctx, tc, tc.reporter, name)
}

// notify renders one template and sends it on every channel the user can be reached on
func (d *Dispatcher) notify(ctx context.Context, tc *ticketContext, u *identity.User, name string) {
	if u == nil || !u.IsActive || !d.firstDelivery(ctx, tc.eventID, u.ID, name) {
		return
	}
	msg, err := d.templates.render(name, tc.data)
	if err != nil {
		d.logger.Warn("render notification", zap.String("template", name), zap.Error(err))
		return
	}

	if u.PhoneNumber != "" && d.config.WhatsAppEnabled {
		err := d.whatsapp.SendWhatsApp(ctx, u.PhoneNumber, msg.whatsappText(name))
		d.record(ChannelWhatsApp, err)
		if err != nil {
			d.logger.Warn("whatsapp notification failed",
				zap.String("template", name),
				zap.String("user_id", u.ID.String()),
				zap.Error(err))
		}
	}
	if u.Email != "" && d.config.EmailEnabled {
		err := d.email.SendEmail(ctx, u.Email, msg.Subject, msg.Body)
		d.record(ChannelEmail, err)
		if err != nil {
			d.logger.Warn("email notification failed",
				zap.String("template", name),
				zap.String("user_id", u.ID.String()),
				zap.Error(err))
		}
	}
}

// firstDelivery reports whether the message has not gone out yet. A failing
// log never blocks delivery.
func (d *Dispatcher) firstDelivery(ctx context.Context, eventID, userID uuid.UUID, name string) bool {
	if d.delivered == nil {
		return true
	}
	first, err := d.delivered.FirstSeen(ctx, eventID.String()+"/"+userID.String()+"/"+name, d.window)
	if err != nil {
		d.logger.Warn("delivery log unavailable", zap.Error(err))
		return true
	}
	if !first {
		d.logger.Debug("notification already delivered",
			zap.String("event_id", eventID.String()),
			zap.String("user_id", userID.String()),
			zap.String("template", name))
	}
	return first
}

func (d *Dispatcher) record(channel string, err error) {
	if d.metrics != nil {
		d.metrics.RecordNotification(channel, err)
	}
}
