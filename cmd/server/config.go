package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/competecore/competecore/internal/factory"
)

// Config holds the server settings gathered from flags and environment
type Config struct {
	host          string
	port          int
	storage       string
	redisURL      string
	databaseURL   string
	mongoURI      string
	mongoDatabase string
	tokenSecret   string
	tokenIssuer   string
	sessionTTL    time.Duration
	eventRelay    string
	logLevel      string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}

	switch c.storage {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.redisURL == "" {
			return errors.New("--redis-url is required when --storage=redis")
		}
	case factory.StorageTypePostgres:
		if c.databaseURL == "" {
			return errors.New("--database-url is required when --storage=postgres")
		}
	case factory.StorageTypeMongo:
		if c.mongoURI == "" {
			return errors.New("--mongo-uri is required when --storage=mongo")
		}
	default:
		return fmt.Errorf("invalid storage %q (must be memory, redis, postgres or mongo)", c.storage)
	}

	switch c.eventRelay {
	case factory.EventRelayLocal:
	case factory.EventRelayRedis:
		if c.redisURL == "" {
			return errors.New("--redis-url is required when --event-relay=redis")
		}
	default:
		return fmt.Errorf("invalid event relay %q (must be local or redis)", c.eventRelay)
	}

	if c.sessionTTL <= 0 {
		return errors.New("--session-ttl must be positive")
	}

	_, err := c.level()
	return err
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q", c.logLevel)
	}
	return level, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("COMPETECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "competecore-server",
		Short: "Matchmaking API for 1v1 competitive matches",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.host, "host", "", "address to bind to (env: COMPETECORE_HOST)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: COMPETECORE_PORT)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "storage backend: memory, redis, postgres, mongo (env: COMPETECORE_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection url (env: COMPETECORE_REDIS_URL)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection url (env: COMPETECORE_DATABASE_URL)")
	fs.StringVar(&cfg.mongoURI, "mongo-uri", "", "mongodb connection uri (env: COMPETECORE_MONGO_URI)")
	fs.StringVar(&cfg.mongoDatabase, "mongo-database", "competecore", "mongodb database name (env: COMPETECORE_MONGO_DATABASE)")
	fs.StringVar(&cfg.tokenSecret, "token-secret", "", "secret used to sign session tokens (env: COMPETECORE_TOKEN_SECRET)")
	fs.StringVar(&cfg.tokenIssuer, "token-issuer", "competecore", "issuer claim of session tokens (env: COMPETECORE_TOKEN_ISSUER)")
	fs.DurationVar(&cfg.sessionTTL, "session-ttl", 24*time.Hour, "how long a login stays valid (env: COMPETECORE_SESSION_TTL)")
	fs.StringVar(&cfg.eventRelay, "event-relay", factory.EventRelayLocal, "event fan-out: local, redis (env: COMPETECORE_EVENT_RELAY)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error (env: COMPETECORE_LOG_LEVEL)")

	// Environment fills in defaults; explicit flags still win
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
