package dto

import "time"

// SignupRequest starts the two-phase OTP signup.
type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// LoginOTPRequest asks for a login code.
type LoginOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest submits a code for either flow.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendOTPRequest asks for a fresh code.
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// PasswordLoginRequest is the legacy password login payload.
type PasswordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
