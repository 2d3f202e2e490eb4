// Package otp holds the ephemeral state behind the OTP authenticator:
// pending one-time codes and pending signup registrations, keyed by
// email. State lives for the process lifetime (in-memory) or under
// Redis TTLs, and is cleared by the periodic sweep.
package otp

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no entry exists for the email key.
var ErrNotFound = errors.New("otp: entry not found")

// Purpose distinguishes which flow an issued code belongs to.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeLogin  Purpose = "login"
)

// Code is a pending one-time code. Only the hash of the code is ever
// stored; LastSent drives the per-email rate limit.
type Code struct {
	Email     string
	Purpose   Purpose
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	LastSent  time.Time
}

// Registration is pending signup data awaiting OTP confirmation. It is
// consumed exactly once, when a User is materialized.
type Registration struct {
	Email      string
	Name       string
	Department string
	CreatedAt  time.Time
}

// CodeStore keeps pending codes keyed by email. Save overwrites any
// prior entry for the same email.
type CodeStore interface {
	Save(ctx context.Context, code Code) error
	Find(ctx context.Context, email string) (*Code, error)
	Delete(ctx context.Context, email string) error
	// IncrementAttempts atomically bumps the failed-attempt counter
	// and returns the new value.
	IncrementAttempts(ctx context.Context, email string) (int, error)
	// Sweep removes entries expired at the given instant. Idempotent.
	Sweep(ctx context.Context, now time.Time) error
}

// RegistrationStore keeps pending registrations keyed by email.
type RegistrationStore interface {
	Save(ctx context.Context, reg Registration) error
	Find(ctx context.Context, email string) (*Registration, error)
	Delete(ctx context.Context, email string) error
	Sweep(ctx context.Context, now time.Time) error
}
