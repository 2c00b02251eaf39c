// Package notification implements the outbound message transports: WhatsApp
// through the Twilio Messages API and email over SMTP.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/helpdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrChannelDisabled is returned by senders whose channel is switched off or unconfigured
var ErrChannelDisabled = errors.New("notification channel disabled")

const whatsappPrefix = "whatsapp:"

// twilioMessage is the subset of the Messages API response we log
type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// twilioError is the Twilio REST error body
type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// TwilioWhatsAppSender posts WhatsApp messages to Twilio. The resty client is
// built once and shared by all requests.
type TwilioWhatsAppSender struct {
	client     *resty.Client
	accountSID string
	from       string
	logger     *zap.Logger
}

// NewTwilioWhatsAppSender builds the sender from configuration
func NewTwilioWhatsAppSender(cfg config.WhatsAppConfig, log *zap.Logger) (*TwilioWhatsAppSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &TwilioWhatsAppSender{
		client:     client,
		accountSID: cfg.AccountSID,
		from:       WhatsAppAddress(cfg.From),
		logger:     log,
	}, nil
}

// WhatsAppAddress prefixes a phone number with the whatsapp: scheme Twilio expects
func WhatsAppAddress(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, whatsappPrefix) {
		return phone
	}
	return whatsappPrefix + phone
}

// SendWhatsApp sends one message
func (s *TwilioWhatsAppSender) SendWhatsApp(ctx context.Context, to, body string) error {
	to = WhatsAppAddress(to)
	if to == "" {
		return errors.New("whatsapp recipient is empty")
	}

	var result twilioMessage
	var apiErr twilioError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("sid", s.accountSID).
		SetFormData(map[string]string{
			"From": s.from,
			"To":   to,
			"Body": body,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio returned %d: code %d: %s", resp.StatusCode(), apiErr.Code, apiErr.Message)
	}

	s.logger.Debug("whatsapp message queued",
		zap.String("message_sid", result.SID),
		zap.String("status", result.Status),
	)
	return nil
}
