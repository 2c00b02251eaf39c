package notification

import (
	"context"

	"github.com/helpdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DisabledSender stands in for a channel that is switched off. Every send
// fails with ErrChannelDisabled so the dispatcher logs and moves on.
type DisabledSender struct {
	Channel string
}

// SendWhatsApp always fails with ErrChannelDisabled
func (d DisabledSender) SendWhatsApp(context.Context, string, string) error {
	return ErrChannelDisabled
}

// SendEmail always fails with ErrChannelDisabled
func (d DisabledSender) SendEmail(context.Context, string, string, string) error {
	return ErrChannelDisabled
}

// WhatsAppSender is the method set of a WhatsApp transport
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// EmailSender is the method set of an email transport
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// NewSenders builds both transports from configuration. A disabled or broken
// channel gets a DisabledSender and a warning instead of failing start-up.
func NewSenders(cfg config.NotificationConfig, log *zap.Logger) (WhatsAppSender, EmailSender) {
	var wa WhatsAppSender = DisabledSender{Channel: "whatsapp"}
	if cfg.WhatsApp.Enabled {
		s, err := NewTwilioWhatsAppSender(cfg.WhatsApp, log)
		if err != nil {
			log.Warn("whatsapp notifications disabled", zap.Error(err))
		} else {
			wa = s
		}
	}

	var email EmailSender = DisabledSender{Channel: "email"}
	if cfg.Email.Enabled {
		s, err := NewSMTPEmailSender(cfg.Email)
		if err != nil {
			log.Warn("email notifications disabled", zap.Error(err))
		} else {
			email = s
		}
	}
	return wa, email
}
