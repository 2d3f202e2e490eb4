package events

import (
	"time"

	"github.com/spec-kit/application-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOTPIssued            EventType = "otp_issued"
	EventApplicationCreated   EventType = "application_created"
	EventApplicationForwarded EventType = "application_forwarded"
	EventApplicationDecided   EventType = "application_decided"
	EventApplicationVerified  EventType = "application_verified"
	EventPasswordResetIssued  EventType = "password_reset_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	ApplicationID string      `json:"application_id,omitempty"`
	ActorID       string      `json:"actor_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// OTPIssuedPayload carries the plaintext code to the mail handler.
// It never touches durable storage.
type OTPIssuedPayload struct {
	Email   string `json:"email"`
	Code    string `json:"-"`
	Purpose string `json:"purpose"`
}

// ApplicationCreatedPayload payload.
type ApplicationCreatedPayload struct {
	Description   string `json:"description"`
	HandlerID     string `json:"handler_id"`
	HandlerEmail  string `json:"handler_email"`
	CreatorEmail  string `json:"creator_email"`
	HandlerRole   string `json:"handler_role"`
	HandlerDepart string `json:"handler_department"`
}

// ApplicationForwardedPayload payload.
type ApplicationForwardedPayload struct {
	NewHandlerID    string `json:"new_handler_id"`
	NewHandlerEmail string `json:"new_handler_email"`
	Remark          string `json:"remark,omitempty"`
}

// ApplicationDecidedPayload payload for accept/reject outcomes.
type ApplicationDecidedPayload struct {
	Status          domain.ApplicationStatus `json:"status"`
	Remark          string                   `json:"remark,omitempty"`
	ReferenceNumber *string                  `json:"reference_number,omitempty"`
	CreatorEmail    string                   `json:"creator_email"`
}

// ApplicationVerifiedPayload payload.
type ApplicationVerifiedPayload struct {
	NewHandlerID    string `json:"new_handler_id"`
	NewHandlerEmail string `json:"new_handler_email"`
}

// PasswordResetIssuedPayload carries the reset link token.
type PasswordResetIssuedPayload struct {
	Email string `json:"email"`
	Token string `json:"-"`
}
