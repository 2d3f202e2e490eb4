package domain

import "time"

// ActionType captures what happened in an audit trail entry.
type ActionType string

const (
	ActionInward   ActionType = "INWARD"
	ActionForward  ActionType = "FORWARD"
	ActionAccept   ActionType = "ACCEPT"
	ActionReject   ActionType = "REJECT"
	ActionVerified ActionType = "VERIFIED"
)

// ApplicationAction is an immutable audit trail entry. Actions are
// append-only and ordered by CreatedAt ascending; replaying them
// reconstructs an application's status and handler chain.
type ApplicationAction struct {
	ID            string
	ApplicationID string
	FromUser      string
	ToUser        *string
	Type          ActionType
	Comment       *string
	CreatedAt     time.Time
}
