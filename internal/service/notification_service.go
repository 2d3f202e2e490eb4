package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/application-tracker/internal/events"
	"github.com/spec-kit/application-tracker/internal/notify"
)

// NotificationService turns domain events into emails. Handlers run on
// the dispatcher's synchronous path, so the actual send happens on a
// separate goroutine and failures are only ever logged.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	logger     *zap.Logger
	clientURL  string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notify.Mailer, logger *zap.Logger, clientURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		clientURL:  clientURL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOTPIssued, n.handleOTPIssued)
	n.dispatcher.Subscribe(events.EventApplicationCreated, n.handleApplicationCreated)
	n.dispatcher.Subscribe(events.EventApplicationForwarded, n.handleApplicationForwarded)
	n.dispatcher.Subscribe(events.EventApplicationDecided, n.handleApplicationDecided)
	n.dispatcher.Subscribe(events.EventApplicationVerified, n.handleApplicationVerified)
	n.dispatcher.Subscribe(events.EventPasswordResetIssued, n.handlePasswordResetIssued)
}

func (n *NotificationService) handleOTPIssued(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OTPIssuedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf(`
    <h1>Your verification code</h1>
    <p>Your one-time code is <b>%s</b>. It expires in 5 minutes.</p>
    `, payload.Code)
	n.sendAsync([]string{payload.Email}, "Your verification code", body)
	return nil
}

func (n *NotificationService) handleApplicationCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationCreatedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf(`
    <h1>New application received</h1>
    <p>A new application is waiting for your review:</p>
    <p>%s</p>
    `, payload.Description)
	n.sendAsync([]string{payload.HandlerEmail}, "New application received", body)
	return nil
}

func (n *NotificationService) handleApplicationForwarded(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationForwardedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf(`
    <h1>Application forwarded to you</h1>
    <p>An application has been forwarded to you for review.</p>
    <p>Remark: %s</p>
    `, payload.Remark)
	n.sendAsync([]string{payload.NewHandlerEmail}, "Application forwarded to you", body)
	return nil
}

func (n *NotificationService) handleApplicationDecided(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationDecidedPayload)
	if !ok || payload.CreatorEmail == "" {
		return nil
	}
	body := fmt.Sprintf(`
    <h1>Your application was %s</h1>
    <p>Remark: %s</p>
    `, payload.Status, payload.Remark)
	if payload.ReferenceNumber != nil {
		body += fmt.Sprintf("<p>Reference number: %s</p>", *payload.ReferenceNumber)
	}
	n.sendAsync([]string{payload.CreatorEmail}, fmt.Sprintf("Application %s", payload.Status), body)
	return nil
}

func (n *NotificationService) handleApplicationVerified(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationVerifiedPayload)
	if !ok {
		return nil
	}
	body := `
    <h1>Application verified</h1>
    <p>A verified application has been handed to you.</p>
    `
	n.sendAsync([]string{payload.NewHandlerEmail}, "Application verified", body)
	return nil
}

func (n *NotificationService) handlePasswordResetIssued(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetIssuedPayload)
	if !ok {
		return nil
	}
	link := fmt.Sprintf("%s/reset-password/%s", n.clientURL, payload.Token)
	body := fmt.Sprintf(`
    <h1>Reset Your Password</h1>
    <p>Please click this <a href="%s">link</a> to reset your password</p>
    `, link)
	n.sendAsync([]string{payload.Email}, "Reset Your Password", body)
	return nil
}

func (n *NotificationService) sendAsync(recipients []string, subject, body string) {
	go func() {
		if err := n.mailer.Send(context.Background(), recipients, subject, body); err != nil {
			n.logger.Warn("mail delivery failed",
				zap.Strings("to", recipients),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}
