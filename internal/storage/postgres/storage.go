package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// Config holds Postgres connection settings
type Config struct {
	// DatabaseURL is a postgres:// connection string
	DatabaseURL string

	// MaxConns caps the pool size; zero keeps the pgx default
	MaxConns int32

	// AutoMigrate applies pending migrations before connecting
	AutoMigrate bool
}

// DefaultConfig returns sensible defaults for Postgres configuration
func DefaultConfig() Config {
	return Config{
		DatabaseURL: "postgres://localhost:5432/competecore?sslmode=disable",
		MaxConns:    10,
		AutoMigrate: true,
	}
}

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	pool *pgxpool.Pool
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New connects to Postgres, optionally migrating the schema first
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.AutoMigrate {
		if err := Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.ConnConfig.RuntimeParams["timezone"] = "UTC"
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// NewWithPool creates a Postgres storage with an existing pool (for testing)
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Close closes the connection pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// User operations

const userColumns = `id, email, username, password_hash, joined_at, wins, losses, earnings`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.JoinedAt,
		&u.Stats.Wins, &u.Stats.Losses, &u.Stats.Earnings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.JoinedAt,
		user.Stats.Wins, user.Stats.Losses, user.Stats.Earnings)
	if isUniqueViolation(err) {
		return model.ErrUserExists
	}
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser locks the row for the duration of the mutation
func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UserMutation) (*model.User, error) {
	var result *model.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		updated := *current
		if err := fn(&updated); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET password_hash = $2, wins = $3, losses = $4, earnings = $5
			WHERE id = $1`,
			id, updated.PasswordHash, updated.Stats.Wins, updated.Stats.Losses, updated.Stats.Earnings)
		if err != nil {
			return err
		}
		updated.ID, updated.Email, updated.Username = current.ID, current.Email, current.Username
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, snapshot, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id, snapshot = EXCLUDED.snapshot,
		    created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		session.ID, session.UserID, session.User, session.CreatedAt, session.ExpiresAt)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, snapshot, created_at, expires_at
		FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.User, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// Match operations

const matchColumns = `id, invite_code, created_by, created_by_username, opponent, opponent_username,
	game_mode, input_method, weapon_restriction, score_limit, time_limit, wager_amount, match_type,
	status, winner_id, created_at, joined_at, completed_at, version`

func scanMatch(row pgx.Row) (*model.Match, error) {
	var m model.Match
	err := row.Scan(&m.ID, &m.InviteCode, &m.CreatedBy, &m.CreatedByUsername, &m.Opponent, &m.OpponentUsername,
		&m.GameMode, &m.InputMethod, &m.WeaponRestriction, &m.ScoreLimit, &m.TimeLimit, &m.WagerAmount, &m.Type,
		&m.Status, &m.WinnerID, &m.CreatedAt, &m.JoinedAt, &m.CompletedAt, &m.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		match.ID, match.InviteCode, match.CreatedBy, match.CreatedByUsername, match.Opponent, match.OpponentUsername,
		match.GameMode, match.InputMethod, match.WeaponRestriction, match.ScoreLimit, match.TimeLimit,
		match.WagerAmount, match.Type, match.Status, match.WinnerID, match.CreatedAt, match.JoinedAt,
		match.CompletedAt, match.Version)
	if isUniqueViolation(err) {
		return model.ErrConflict
	}
	return err
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return scanMatch(s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
}

func (s *Storage) GetMatchByInviteCode(ctx context.Context, code model.InviteCode) (*model.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE invite_code = $1`, code))
	if errors.Is(err, model.ErrMatchNotFound) {
		return nil, model.ErrInviteCodeNotFound
	}
	return m, err
}

func (s *Storage) InviteCodeExists(ctx context.Context, code model.InviteCode) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE invite_code = $1)`, code).Scan(&exists)
	return exists, err
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*model.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// UpdateMatch writes only if the version read is still current, retrying otherwise
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchMutation) (*model.Match, error) {
	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		current, err := s.GetMatch(ctx, id)
		if err != nil {
			return nil, err
		}
		updated := current.Clone()
		if err := fn(updated); err != nil {
			return nil, err
		}
		updated.ID, updated.InviteCode = current.ID, current.InviteCode
		updated.Version = current.Version + 1

		tag, err := s.pool.Exec(ctx, `
			UPDATE matches SET
				opponent = $3, opponent_username = $4, status = $5, winner_id = $6,
				joined_at = $7, completed_at = $8, version = $9
			WHERE id = $1 AND version = $2`,
			id, current.Version, updated.Opponent, updated.OpponentUsername, updated.Status,
			updated.WinnerID, updated.JoinedAt, updated.CompletedAt, updated.Version)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			return updated, nil
		}
	}
	return nil, model.ErrConflict
}
