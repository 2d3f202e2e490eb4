package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 10, 5)

	token, exp, err := tm.GenerateSessionToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*24*time.Hour), exp, time.Minute)

	claims, err := tm.ParseToken(token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, PurposeSession, claims.Purpose)
}

func TestEmailTokenCarriesEmail(t *testing.T) {
	tm := NewTokenManager("secret", 10, 5)

	token, _, err := tm.GenerateEmailToken("ada@example.com")
	require.NoError(t, err)

	claims, err := tm.ParseToken(token, PurposeEmail)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestParseTokenRejectsPurposeMismatch(t *testing.T) {
	tm := NewTokenManager("secret", 10, 5)

	token, _, err := tm.GenerateEmailToken("ada@example.com")
	require.NoError(t, err)

	_, err = tm.ParseToken(token, PurposeSession)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret", 10, 5)
	other := NewTokenManager("different", 10, 5)

	token, _, err := tm.GenerateSessionToken("user-1")
	require.NoError(t, err)

	_, err = other.ParseToken(token, PurposeSession)
	assert.Error(t, err)
}
