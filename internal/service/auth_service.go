package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/application-tracker/internal/auth"
	"github.com/spec-kit/application-tracker/internal/config"
	"github.com/spec-kit/application-tracker/internal/domain"
	"github.com/spec-kit/application-tracker/internal/events"
	"github.com/spec-kit/application-tracker/internal/otp"
	"github.com/spec-kit/application-tracker/internal/repository"
	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

// Session is the credential handed out after successful verification.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService implements the OTP authentication protocol: time-boxed
// codes, per-email rate limiting, bounded attempts, and two-phase
// signup with ephemeral registration state. It also carries the legacy
// password login and reset paths.
type AuthService struct {
	users      repository.UserRepository
	codes      otp.CodeStore
	regs       otp.RegistrationStore
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger

	codeTTL      time.Duration
	resendWindow time.Duration
	maxAttempts  int
	bcryptCost   int

	now func() time.Time
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	CodeStore        otp.CodeStore
	RegistrationRepo otp.RegistrationStore
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:        deps.UserRepo,
		codes:        deps.CodeStore,
		regs:         deps.RegistrationRepo,
		tokenMgr:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTLDays, cfg.Auth.EmailTokenTTLMinutes),
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		codeTTL:      cfg.OTP.CodeTTL(),
		resendWindow: cfg.OTP.ResendWindow(),
		maxAttempts:  cfg.OTP.MaxAttempts,
		bcryptCost:   cfg.Auth.BcryptCost,
		now:          time.Now,
	}
}

// RequestSignupOTP begins the two-phase signup: it stores the pending
// registration (overwriting any prior one for the same email) and
// issues a code. Fails with DUPLICATE_USER when a verified user
// already owns the email and RATE_LIMITED inside the resend window.
func (s *AuthService) RequestSignupOTP(ctx context.Context, email, name, department string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(name) == "" || strings.TrimSpace(department) == "" {
		return apperrors.NewValidationError("name, email and department required", nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	if existing != nil && existing.EmailVerified {
		return apperrors.NewDuplicateUser(email)
	}

	if err := s.checkResendWindow(ctx, email); err != nil {
		return err
	}

	if err := s.regs.Save(ctx, otp.Registration{
		Email:      email,
		Name:       strings.TrimSpace(name),
		Department: strings.TrimSpace(department),
		CreatedAt:  s.now(),
	}); err != nil {
		return apperrors.MapError(err)
	}

	return s.issueCode(ctx, email, otp.PurposeSignup)
}

// RequestLoginOTP issues a login code for an existing verified user.
func (s *AuthService) RequestLoginOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return apperrors.MapError(err)
	}
	if !user.EmailVerified {
		return apperrors.NewUnauthenticated("email not verified")
	}

	if err := s.checkResendWindow(ctx, email); err != nil {
		return err
	}
	return s.issueCode(ctx, email, otp.PurposeLogin)
}

// VerifyOTP checks a submitted code. Codes are single-use: a match
// consumes the pending entry before any other work. A signup match
// additionally requires the pending registration to still exist and
// materializes the User with email_verified=true.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)

	pending, err := s.codes.Find(ctx, email)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil, apperrors.NewOTPInvalidOrExpired()
		}
		return nil, apperrors.MapError(err)
	}

	if s.now().After(pending.ExpiresAt) {
		_ = s.codes.Delete(ctx, email)
		return nil, apperrors.NewOTPInvalidOrExpired()
	}

	if hashCode(code) != pending.CodeHash {
		attempts, err := s.codes.IncrementAttempts(ctx, email)
		if err != nil && !errors.Is(err, otp.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
		if attempts > s.maxAttempts {
			_ = s.codes.Delete(ctx, email)
		}
		return nil, apperrors.NewOTPInvalidOrExpired()
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		return nil, apperrors.MapError(err)
	}

	var user *domain.User
	switch pending.Purpose {
	case otp.PurposeSignup:
		user, err = s.materializeUser(ctx, email)
	case otp.PurposeLogin:
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil && errors.Is(err, pgx.ErrNoRows) {
			err = apperrors.NewNotFound("user", map[string]any{"email": email})
		}
	default:
		err = apperrors.NewInternalError(fmt.Errorf("unknown otp purpose %q", pending.Purpose))
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateSessionToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// ResendOTP re-issues a code for an email that has an account or a
// signup in flight. The reply is deliberately generic either way, so
// the endpoint cannot be used to enumerate accounts.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	purpose := otp.Purpose("")
	if user, err := s.users.GetByEmail(ctx, email); err == nil && user.EmailVerified {
		purpose = otp.PurposeLogin
	} else if _, err := s.regs.Find(ctx, email); err == nil {
		purpose = otp.PurposeSignup
	}
	if purpose == "" {
		return nil
	}

	if err := s.checkResendWindow(ctx, email); err != nil {
		return err
	}
	return s.issueCode(ctx, email, purpose)
}

// CleanupExpired sweeps expired codes and stale registrations. It is
// idempotent and safe to run concurrently with request handling.
func (s *AuthService) CleanupExpired(ctx context.Context) {
	now := s.now()
	if err := s.codes.Sweep(ctx, now); err != nil {
		s.logger.Warn("otp code sweep failed", zap.Error(err))
	}
	if err := s.regs.Sweep(ctx, now); err != nil {
		s.logger.Warn("pending registration sweep failed", zap.Error(err))
	}
}

// LoginWithPassword authenticates against the stored bcrypt hash.
// Unverified emails are refused even with a correct password.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if user.PasswordHash == nil || auth.ComparePassword(*user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}
	if !user.EmailVerified {
		return nil, apperrors.NewUnauthenticated("email not verified")
	}

	token, exp, err := s.tokenMgr.GenerateSessionToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// RequestPasswordReset emails a short-lived reset token when the email
// is registered, answering generically in all cases.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}

	token, _, err := s.tokenMgr.GenerateEmailToken(email)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventPasswordResetIssued,
		Payload: events.PasswordResetIssuedPayload{Email: email, Token: token},
	})
	return nil
}

// ConfirmPasswordReset validates the emailed token and stores the new
// password hash.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword, confirmPassword string) error {
	if newPassword == "" || newPassword != confirmPassword {
		return apperrors.NewValidationError("passwords do not match", nil)
	}

	claims, err := s.tokenMgr.ParseToken(tokenStr, auth.PurposeEmail)
	if err != nil {
		return apperrors.NewUnauthenticated("invalid or expired token")
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"email": claims.Email})
		}
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) materializeUser(ctx context.Context, email string) (*domain.User, error) {
	reg, err := s.regs.Find(ctx, email)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil, apperrors.NewSessionExpired()
		}
		return nil, err
	}

	user := &domain.User{
		Name:          reg.Name,
		Role:          domain.RoleStudent,
		Department:    reg.Department,
		Email:         email,
		EmailVerified: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.regs.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to consume pending registration", zap.String("email", email), zap.Error(err))
	}
	return user, nil
}

func (s *AuthService) checkResendWindow(ctx context.Context, email string) error {
	pending, err := s.codes.Find(ctx, email)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if s.now().Sub(pending.LastSent) < s.resendWindow {
		return apperrors.NewRateLimited("a code was sent recently, try again later")
	}
	return nil
}

func (s *AuthService) issueCode(ctx context.Context, email string, purpose otp.Purpose) error {
	code, err := generateCode()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	now := s.now()
	if err := s.codes.Save(ctx, otp.Code{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hashCode(code),
		ExpiresAt: now.Add(s.codeTTL),
		Attempts:  0,
		LastSent:  now,
	}); err != nil {
		return apperrors.MapError(err)
	}

	// Delivery is fire-and-forget: a mail failure never changes the
	// outcome of the request.
	s.publish(ctx, events.Event{
		Type:    events.EventOTPIssued,
		Payload: events.OTPIssuedPayload{Email: email, Code: code, Purpose: string(purpose)},
	})
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// generateCode draws exactly six ASCII digits from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// hashCode returns the hex sha-256 of a code; stored and candidate
// codes are only ever compared in hashed form.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
