package storage

import (
	"context"

	"github.com/competecore/competecore/internal/model"
)

// MaxUpdateAttempts bounds how often an optimistic update is retried
// before giving up with model.ErrConflict
const MaxUpdateAttempts = 8

// UserMutation modifies a user in place. Returning an error aborts the update.
// Mutations must not change the user's ID, email or username.
type UserMutation func(*model.User) error

// MatchMutation modifies a match in place. Returning an error aborts the
// update and the error is passed through to the caller unchanged.
type MatchMutation func(*model.Match) error

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, id model.UserID, fn UserMutation) (*model.User, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error

	// Match operations
	CreateMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	GetMatchByInviteCode(ctx context.Context, code model.InviteCode) (*model.Match, error)
	InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error)
	ListMatches(ctx context.Context) ([]*model.Match, error)
	UpdateMatch(ctx context.Context, id model.MatchID, fn MatchMutation) (*model.Match, error)

	// Close releases any connections held by the backend
	Close() error
}
