package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/competecore/competecore/internal/dependencies/clock"
	"github.com/competecore/competecore/internal/dependencies/ids"
	"github.com/competecore/competecore/internal/dependencies/random"
	"github.com/competecore/competecore/internal/events"
	"github.com/competecore/competecore/internal/services/auth"
	"github.com/competecore/competecore/internal/services/leaderboard"
	"github.com/competecore/competecore/internal/services/matches"
	"github.com/competecore/competecore/internal/storage"
	"github.com/competecore/competecore/internal/storage/memory"
	mongostorage "github.com/competecore/competecore/internal/storage/mongo"
	pgstorage "github.com/competecore/competecore/internal/storage/postgres"
	redisstorage "github.com/competecore/competecore/internal/storage/redis"
	"github.com/competecore/competecore/internal/stream"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeMongo    = "mongo"
)

// Event relay constants
const (
	EventRelayLocal = "local"
	EventRelayRedis = "redis"
)

// hubJanitorInterval is how often empty stream hubs are removed
const hubJanitorInterval = time.Minute

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Event fan-out
	HubManager *stream.HubManager
	Publisher  events.Publisher

	// Services
	AuthService        *auth.Service
	MatchesController  *matches.Controller
	LeaderboardService *leaderboard.Service

	relay       *events.RedisRelay
	relayClient *redis.Client // owned only when not shared with storage
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// Zero fields fall back to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend: memory, redis, postgres or mongo
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required for redis
	// storage or the redis event relay)
	RedisConfig *redisstorage.Config
	// PostgresConfig is required if StorageType is "postgres"
	PostgresConfig *pgstorage.Config
	// MongoConfig is required if StorageType is "mongo"
	MongoConfig *mongostorage.Config
	// EventRelay selects how events reach subscribers: local or redis
	// If empty, defaults to "local"
	EventRelay string
	// EventChannel overrides the Redis channel used by the redis relay
	EventChannel string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	store, err := newStorage(ctx, storageType, cfg)
	if err != nil {
		return nil, err
	}

	hubManager := stream.NewHubManager(logger)
	var (
		publisher   events.Publisher = events.NewLocal(hubManager)
		relay       *events.RedisRelay
		relayClient *redis.Client
	)

	switch cfg.EventRelay {
	case "", EventRelayLocal:
	case EventRelayRedis:
		relay, relayClient, err = newRedisRelay(store, hubManager, cfg, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		publisher = relay
	default:
		_ = store.Close()
		return nil, fmt.Errorf("invalid EventRelay %q: must be 'local' or 'redis'", cfg.EventRelay)
	}

	app := newWithDependencies(store, clock.New(), random.New(), ids.New(), hubManager, publisher, cfg.AuthConfig, logger)
	app.StorageType = storageType
	app.relay = relay
	app.relayClient = relayClient
	return app, nil
}

func newStorage(ctx context.Context, storageType string, cfg Config) (storage.Storage, error) {
	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		return pgstorage.New(ctx, *cfg.PostgresConfig)
	case StorageTypeMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StorageType is mongo")
		}
		return mongostorage.New(ctx, *cfg.MongoConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, postgres or mongo", storageType)
	}
}

// newRedisRelay builds the Redis pub/sub relay, sharing the storage
// connection pool when storage is Redis too. The returned client is non-nil
// only when the relay owns it.
func newRedisRelay(store storage.Storage, hubManager *stream.HubManager, cfg Config, logger *slog.Logger) (*events.RedisRelay, *redis.Client, error) {
	if rs, ok := store.(*redisstorage.Storage); ok {
		return events.NewRedisRelay(rs.Client(), cfg.EventChannel, hubManager, logger), nil, nil
	}

	if cfg.RedisConfig == nil {
		return nil, nil, errors.New("RedisConfig required when EventRelay is redis")
	}
	opts, err := redis.ParseURL(cfg.RedisConfig.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return events.NewRedisRelay(client, cfg.EventChannel, hubManager, logger), client, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	hubManager *stream.HubManager,
	publisher events.Publisher,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	return &App{
		Storage:            store,
		StorageType:        StorageTypeMemory,
		Clock:              clk,
		Random:             rnd,
		IDs:                idGen,
		HubManager:         hubManager,
		Publisher:          publisher,
		AuthService:        auth.New(store, clk, idGen, publisher, logger, authCfg),
		MatchesController:  matches.NewController(store, clk, rnd, idGen, publisher, logger),
		LeaderboardService: leaderboard.New(store),
	}
}

// Start runs the background workers until ctx is cancelled: the stream
// hub janitor and, when configured, the Redis event relay. It returns once
// the relay subscription is live.
func (a *App) Start(ctx context.Context) {
	go a.HubManager.RunJanitor(ctx, hubJanitorInterval)
	if a.relay != nil {
		<-a.relay.Run(ctx)
	}
}

// Close releases storage connections and disconnects stream clients
func (a *App) Close() error {
	a.HubManager.Close()
	var errs []error
	if a.relayClient != nil {
		errs = append(errs, a.relayClient.Close())
	}
	errs = append(errs, a.Storage.Close())
	return errors.Join(errs...)
}
