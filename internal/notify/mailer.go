// Package notify provides outbound email delivery. Delivery is a
// fire-and-forget contract: callers never treat a send failure as a
// request failure.
package notify

import (
	"context"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/application-tracker/internal/config"
)

// Mailer delivers a message to the given recipients.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		name:   cfg.FromName,
	}
}

// Send delivers a single HTML message.
func (m *SMTPMailer) Send(_ context.Context, recipients []string, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.name)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// NopMailer logs instead of sending, for environments without SMTP.
type NopMailer struct {
	logger *zap.Logger
}

// NewNopMailer builds the logging mailer.
func NewNopMailer(logger *zap.Logger) *NopMailer {
	return &NopMailer{logger: logger}
}

func (m *NopMailer) Send(_ context.Context, recipients []string, subject, _ string) error {
	m.logger.Info("mail suppressed (SMTP not configured)",
		zap.Strings("to", recipients),
		zap.String("subject", subject),
	)
	return nil
}
