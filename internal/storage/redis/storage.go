package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Multi-key writes run in WATCH/MULTI transactions so uniqueness and
// read-modify-write updates hold across server instances.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client returns the underlying client so other components can share the pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// watch runs fn in a WATCH transaction on keys, retrying when another
// client modified a watched key before EXEC
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return model.ErrConflict
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, c getter, key string, notFound error) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	key := userKey(user.ID)
	emailIdx := emailIndexKey(user.Email)
	usernameIdx := usernameIndexKey(user.Username)

	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key, emailIdx, usernameIdx).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrUserExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Set(ctx, emailIdx, string(user.ID), 0)
			pipe.Set(ctx, usernameIdx, string(user.ID), 0)
			pipe.RPush(ctx, userListKey(), string(user.ID))
			return nil
		})
		return err
	}, key, emailIdx, usernameIdx)
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return getJSON[model.User](ctx, s.client, userKey(id), model.ErrUserNotFound)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUserByIndex(ctx, emailIndexKey(email))
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUserByIndex(ctx, usernameIndexKey(username))
}

func (s *Storage) getUserByIndex(ctx context.Context, indexKey string) (*model.User, error) {
	userID, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(userID))
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	ids, err := s.client.LRange(ctx, userListKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(model.UserID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var user model.User
		if err := json.Unmarshal([]byte(str), &user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UserMutation) (*model.User, error) {
	key := userKey(id)
	var result *model.User

	err := s.watch(ctx, func(tx *redis.Tx) error {
		current, err := getJSON[model.User](ctx, tx, key, model.ErrUserNotFound)
		if err != nil {
			return err
		}
		updated := *current
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID, updated.Email, updated.Username = current.ID, current.Email, current.Username

		data, err := json.Marshal(&updated)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			result = &updated
		}
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Session operations

// SaveSession stores the session with a TTL of its full lifetime. The
// lifetime is taken from the session's own timestamps so Redis expiry
// agrees with Session.IsExpired under whatever clock issued it.
func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if session.CreatedAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return getJSON[model.Session](ctx, s.client, sessionKey(id), model.ErrSessionNotFound)
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Match operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	key := matchKey(match.ID)
	inviteIdx := inviteCodeIndexKey(match.InviteCode)

	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key, inviteIdx).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Set(ctx, inviteIdx, string(match.ID), 0)
			pipe.LPush(ctx, matchListKey(), string(match.ID))
			return nil
		})
		return err
	}, key, inviteIdx)
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return getJSON[model.Match](ctx, s.client, matchKey(id), model.ErrMatchNotFound)
}

func (s *Storage) GetMatchByInviteCode(ctx context.Context, code model.InviteCode) (*model.Match, error) {
	matchID, err := s.client.Get(ctx, inviteCodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInviteCodeNotFound
		}
		return nil, err
	}
	return s.GetMatch(ctx, model.MatchID(matchID))
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	n, err := s.client.Exists(ctx, inviteCodeIndexKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	ids, err := s.client.LRange(ctx, matchListKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	matches := make([]*model.Match, 0, len(ids))
	if len(ids) == 0 {
		return matches, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKey(model.MatchID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var match model.Match
		if err := json.Unmarshal([]byte(str), &match); err != nil {
			return nil, err
		}
		matches = append(matches, &match)
	}
	return matches, nil
}

func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchMutation) (*model.Match, error) {
	key := matchKey(id)
	var result *model.Match

	err := s.watch(ctx, func(tx *redis.Tx) error {
		current, err := getJSON[model.Match](ctx, tx, key, model.ErrMatchNotFound)
		if err != nil {
			return err
		}
		updated := current.Clone()
		if err := fn(updated); err != nil {
			return err
		}
		updated.ID, updated.InviteCode = current.ID, current.InviteCode
		updated.Version = current.Version + 1

		data, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			result = updated
		}
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return result, nil
}
