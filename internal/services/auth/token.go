package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/competecore/competecore/internal/dependencies/clock"
	"github.com/competecore/competecore/internal/model"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenManager issues and verifies signed session tokens. The token only
// names a stored session; revoking the session revokes the token.
type TokenManager struct {
	secret []byte
	issuer string
	clock  clock.Clock
}

// NewTokenManager creates a manager with the provided secret and issuer
func NewTokenManager(secret, issuer string, clock clock.Clock) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		clock:  clock,
	}
}

// Generate issues a signed JWT for the session
func (t *TokenManager) Generate(session *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   string(session.UserID),
		ID:        string(session.ID),
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		NotBefore: jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies the token's signature, issuer and lifetime and returns
// the session and user it names. An expired but otherwise valid token
// returns ErrExpiredToken along with its ids so the session can be purged.
func (t *TokenManager) Parse(token string) (model.SessionID, model.UserID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if claims.ID == "" || claims.Subject == "" {
		if err == nil {
			err = errors.New("missing session claims")
		}
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sessionID, userID := model.SessionID(claims.ID), model.UserID(claims.Subject)
	switch {
	case err == nil:
		return sessionID, userID, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return sessionID, userID, ErrExpiredToken
	default:
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
