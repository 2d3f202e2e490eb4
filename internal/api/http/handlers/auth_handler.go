package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/application-tracker/internal/api/dto"
	"github.com/spec-kit/application-tracker/internal/service"
	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

// AuthHandler exposes the OTP signup/login flows plus the legacy
// password endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.RequestSignupOTP(c.UserContext(), req.Email, req.Name, req.Department); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "verification code sent"})
}

// RequestLoginOTP handles POST /api/auth/login/otp.
func (h *AuthHandler) RequestLoginOTP(c *fiber.Ctx) error {
	var req dto.LoginOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.RequestLoginOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "verification code sent"})
}

// Verify handles POST /api/auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}

	session, err := h.auth.VerifyOTP(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}

	setSessionCookie(c, session)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":         session.User.ID,
				"name":       session.User.Name,
				"email":      session.User.Email,
				"role":       session.User.Role,
				"department": session.User.Department,
			},
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Resend handles POST /api/auth/resend.
func (h *AuthHandler) Resend(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.ResendOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "if the email is registered, a code has been sent"})
}

// Login handles POST /api/auth/login (password path).
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.PasswordLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	session, err := h.auth.LoginWithPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	setSessionCookie(c, session)
	return c.JSON(fiber.Map{
		"access_token": session.Token,
		"token_type":   "bearer",
	})
}

// RequestPasswordReset handles POST /api/auth/password-reset-request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "please check your email for instructions to reset your password",
	})
}

// ConfirmPasswordReset handles POST /api/auth/password-reset-confirm/:token.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token := c.Params("token")
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), token, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password reset successfully"})
}

func setSessionCookie(c *fiber.Ctx, session *service.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
