package memory

import (
	"context"
	"sync"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	users         map[model.UserID]*model.User
	userOrder     []model.UserID
	emailIndex    map[string]model.UserID
	usernameIndex map[string]model.UserID
	sessions      map[model.SessionID]*model.Session
	matches       map[model.MatchID]*model.Match
	matchOrder    []model.MatchID // newest first
	inviteIndex   map[model.InviteCode]model.MatchID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]*model.User),
		emailIndex:    make(map[string]model.UserID),
		usernameIndex: make(map[string]model.UserID),
		sessions:      make(map[model.SessionID]*model.Session),
		matches:       make(map[model.MatchID]*model.Match),
		inviteIndex:   make(map[model.InviteCode]model.MatchID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return model.ErrUserExists
	}
	if _, ok := s.emailIndex[user.Email]; ok {
		return model.ErrUserExists
	}
	if _, ok := s.usernameIndex[user.Username]; ok {
		return model.ErrUserExists
	}
	u := *user
	s.users[u.ID] = &u
	s.userOrder = append(s.userOrder, u.ID)
	s.emailIndex[u.Email] = u.ID
	s.usernameIndex[u.Username] = u.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.userLocked(id)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.userLocked(id)
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := *s.users[id]
		users = append(users, &u)
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UserMutation) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	updated := *current
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID, updated.Email, updated.Username = current.ID, current.Email, current.Username
	s.users[id] = &updated
	result := updated
	return &result, nil
}

func (s *Storage) userLocked(id model.UserID) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[sess.ID] = &sess
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	sess := *session
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Match operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[match.ID]; ok {
		return model.ErrConflict
	}
	if _, ok := s.inviteIndex[match.InviteCode]; ok {
		return model.ErrConflict
	}
	s.matches[match.ID] = match.Clone()
	s.matchOrder = append([]model.MatchID{match.ID}, s.matchOrder...)
	s.inviteIndex[match.InviteCode] = match.ID
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match.Clone(), nil
}

func (s *Storage) GetMatchByInviteCode(ctx context.Context, code model.InviteCode) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.inviteIndex[code]
	if !ok {
		return nil, model.ErrInviteCodeNotFound
	}
	return s.matches[id].Clone(), nil
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inviteIndex[code]
	return ok, nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*model.Match, 0, len(s.matchOrder))
	for _, id := range s.matchOrder {
		matches = append(matches, s.matches[id].Clone())
	}
	return matches, nil
}

// UpdateMatch applies fn under the write lock, so there is never a conflict to retry
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchMutation) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.ID, updated.InviteCode = current.ID, current.InviteCode
	updated.Version = current.Version + 1
	s.matches[id] = updated
	return updated.Clone(), nil
}

func (s *Storage) Close() error {
	return nil
}
