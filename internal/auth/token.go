package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenPurpose scopes a token to the flow it was issued for.
type TokenPurpose string

const (
	// PurposeSession is the long-lived credential returned after OTP
	// verification or password login.
	PurposeSession TokenPurpose = "session"
	// PurposeEmail is the short-lived token embedded in email links
	// (password reset, legacy email confirmation).
	PurposeEmail TokenPurpose = "email"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	emailTTL   time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, sessionTTLDays, emailTTLMinutes int) *TokenManager {
	if sessionTTLDays <= 0 {
		sessionTTLDays = 10
	}
	if emailTTLMinutes <= 0 {
		emailTTLMinutes = 5
	}
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: time.Duration(sessionTTLDays) * 24 * time.Hour,
		emailTTL:   time.Duration(emailTTLMinutes) * time.Minute,
	}
}

// Claims describes JWT payload.
type Claims struct {
	Purpose TokenPurpose `json:"purpose"`
	Email   string       `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateSessionToken builds and signs a session credential bound to
// the user id.
func (tm *TokenManager) GenerateSessionToken(userID string) (string, time.Time, error) {
	return tm.generate(Claims{
		Purpose: PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}, tm.sessionTTL)
}

// GenerateEmailToken signs a short-lived token binding to an email
// address for confirmation links.
func (tm *TokenManager) GenerateEmailToken(email string) (string, time.Time, error) {
	return tm.generate(Claims{
		Purpose: PurposeEmail,
		Email:   email,
	}, tm.emailTTL)
}

func (tm *TokenManager) generate(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	claims.IssuedAt = jwt.NewNumericDate(now)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates a token of the expected purpose and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string, purpose TokenPurpose) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, errors.New("token purpose mismatch")
	}
	return claims, nil
}
