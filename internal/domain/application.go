package domain

import "time"

// ApplicationStatus enumerates lifecycle states for applications.
// ACCEPTED and REJECTED are terminal.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
	StatusForwarded ApplicationStatus = "forwarded"
)

// Terminal reports whether the status admits no further transitions.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Application is the aggregate for submitted requests. CreatedBy is
// the immutable owner; CurrentHandler is the user responsible for the
// next action. IsVerified is an orthogonal flag, not a status state.
type Application struct {
	ID              string
	Description     string
	DocumentRef     *string
	CreatedBy       string
	CurrentHandler  string
	Status          ApplicationStatus
	IsVerified      bool
	AcceptReference *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
