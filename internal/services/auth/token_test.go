package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competecore/competecore/internal/dependencies/mocks"
	"github.com/competecore/competecore/internal/model"
)

func testSession(now time.Time) *model.Session {
	return &model.Session{
		ID:        "session-1",
		UserID:    "user-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	tm := NewTokenManager("secret", "competecore", clock)

	token, err := tm.Generate(testSession(clock.Now()))
	require.NoError(t, err)

	sessionID, userID, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, model.SessionID("session-1"), sessionID)
	assert.Equal(t, model.UserID("user-1"), userID)
}

func TestTokenExpired(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	tm := NewTokenManager("secret", "competecore", clock)

	token, err := tm.Generate(testSession(clock.Now()))
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	sessionID, _, err := tm.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Equal(t, model.SessionID("session-1"), sessionID)
}

func TestTokenWrongIssuer(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	token, err := NewTokenManager("secret", "someone-else", clock).Generate(testSession(clock.Now()))
	require.NoError(t, err)

	_, _, err = NewTokenManager("secret", "competecore", clock).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	claims := jwt.RegisteredClaims{
		Issuer:    "competecore",
		Subject:   "user-1",
		ID:        "session-1",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = NewTokenManager("secret", "competecore", clock).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
