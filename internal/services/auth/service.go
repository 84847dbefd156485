package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/competecore/competecore/internal/dependencies/clock"
	"github.com/competecore/competecore/internal/dependencies/ids"
	"github.com/competecore/competecore/internal/events"
	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
	"github.com/competecore/competecore/internal/validate"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Session is a stored login together with the signed token that names it
type Session struct {
	model.Session
	Token string `json:"token"`
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	TokenSecret     string
	TokenIssuer     string

	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		TokenSecret:     "competecore-dev-secret",
		TokenIssuer:     "competecore",
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// Service handles accounts, credentials and sessions
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	ids       ids.Generator
	tokens    *TokenManager
	publisher events.Publisher
	logger    *slog.Logger

	sessionDuration time.Duration
	bcryptCost      int
}

// New creates a new auth Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	idGen ids.Generator,
	publisher events.Publisher,
	logger *slog.Logger,
	cfg Config,
) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = defaults.TokenSecret
	}
	if cfg.TokenIssuer == "" {
		cfg.TokenIssuer = defaults.TokenIssuer
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		ids:             idGen,
		tokens:          NewTokenManager(cfg.TokenSecret, cfg.TokenIssuer, clock),
		publisher:       publisher,
		logger:          logger.With(slog.String("component", "auth-service")),
		sessionDuration: cfg.SessionDuration,
		bcryptCost:      cfg.BcryptCost,
	}
}

// Signup registers a new user and logs them in. Fails with
// model.ErrUserExists if the email or the username is already taken, in
// which case the registry is left unchanged.
func (s *Service) Signup(ctx context.Context, email, password, username string) (*Session, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	if err := validate.Username(username); err != nil {
		return nil, err
	}
	if err := validate.Password(password, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:           model.UserID(s.ids.NewID()),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		JoinedAt:     s.clock.Now(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", string(user.ID)),
		slog.String("username", user.Username))

	public := user.Public()
	s.publisher.Publish(ctx, model.Event{
		Type:      model.EventUserRegistered,
		Timestamp: user.JoinedAt,
		UserID:    user.ID,
		User:      &public,
	})

	return s.createSession(ctx, user)
}

// Login checks the credentials and starts a new session. Any mismatch,
// including an unknown email, returns ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, user)
}

// Logout ends a session. Unknown sessions are ignored.
func (s *Service) Logout(ctx context.Context, sessionID model.SessionID) error {
	return s.storage.DeleteSession(ctx, sessionID)
}

// ValidateSession resolves a token to its live session. Expired sessions
// are deleted.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	sessionID, userID, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			_ = s.storage.DeleteSession(ctx, sessionID)
		}
		return nil, ErrInvalidSession
	}

	session, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrInvalidSession
	}

	if session.IsExpired(s.clock.Now()) {
		_ = s.storage.DeleteSession(ctx, sessionID)
		return nil, ErrInvalidSession
	}

	return &Session{Session: *session, Token: token}, nil
}

// GetUser returns a user without credentials
func (s *Service) GetUser(ctx context.Context, id model.UserID) (*model.PublicUser, error) {
	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// GetAllUsers returns every registered user in registration order
func (s *Service) GetAllUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// createSession persists a new session for the user and signs its token
func (s *Service) createSession(ctx context.Context, user *model.User) (*Session, error) {
	now := s.clock.Now()
	session := model.Session{
		ID:        model.SessionID(s.ids.NewID()),
		UserID:    user.ID,
		User:      user.Public(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	token, err := s.tokens.Generate(&session)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	if err := s.storage.SaveSession(ctx, &session); err != nil {
		return nil, err
	}

	return &Session{Session: session, Token: token}, nil
}
