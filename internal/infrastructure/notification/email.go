package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/helpdesk/backend/internal/infrastructure/config"
)

// SMTPEmailSender delivers plain-text mail through an SMTP relay
type SMTPEmailSender struct {
	addr     string
	from     string
	username string
	password string
	now      func() time.Time
}

// NewSMTPEmailSender builds the sender from configuration
func NewSMTPEmailSender(cfg config.EmailConfig) (*SMTPEmailSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and from address are required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPEmailSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
		now:      time.Now,
	}, nil
}

// SendEmail sends one message. The SMTP client has no context support, so ctx
// is only checked before dialing.
func (s *SMTPEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("email recipient is empty")
	}

	var auth sasl.Client
	if s.username != "" {
		auth = sasl.NewPlainClient("", s.username, s.password)
	}

	msg := s.buildMessage(to, subject, body)
	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (s *SMTPEmailSender) buildMessage(to, subject, body string) *bytes.Buffer {
	buf := &bytes.Buffer{}
	buf.WriteString("From: " + s.from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	buf.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf
}
