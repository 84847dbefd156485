package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
	"github.com/competecore/competecore/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	databaseURL string
}

// startPostgres runs a throwaway Postgres container and returns its URL
func startPostgres(t *testing.T) string {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("competecore_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		tcpostgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"test": "competecore-storage"}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestStorageSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	s := new(StorageSuite)
	s.databaseURL = startPostgres(t)
	require.NoError(t, Migrate(s.databaseURL))

	s.NewStorage = func() storage.Storage {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, s.databaseURL)
		s.Require().NoError(err)
		_, err = pool.Exec(ctx, `TRUNCATE users, sessions, matches RESTART IDENTITY`)
		s.Require().NoError(err)
		return NewWithPool(pool)
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestMigrateIsIdempotent() {
	s.NoError(Migrate(s.databaseURL))
}

func (s *StorageSuite) TestNewConnectsAndMigrates() {
	cfg := DefaultConfig()
	cfg.DatabaseURL = s.databaseURL

	st, err := New(s.Ctx, cfg)
	s.Require().NoError(err)
	defer st.Close()

	users, err := st.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *StorageSuite) TestNegativeStatsRejected() {
	user := &model.User{ID: "user-1", Email: "a@example.com", Username: "alice", JoinedAt: time.Now().UTC()}
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	_, err := s.Storage.UpdateUser(s.Ctx, user.ID, func(u *model.User) error {
		u.Stats.Losses = -1
		return nil
	})
	s.Error(err)
}
