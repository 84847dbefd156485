package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/competecore/competecore/internal/api"
	"github.com/competecore/competecore/internal/factory"
	"github.com/competecore/competecore/internal/services/auth"
	mongostorage "github.com/competecore/competecore/internal/storage/mongo"
	pgstorage "github.com/competecore/competecore/internal/storage/postgres"
	redisstorage "github.com/competecore/competecore/internal/storage/redis"
)

func main() {
	// A missing .env file is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCmd(&Config{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *Config) error {
	level, _ := cfg.level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	if cfg.tokenSecret == "" {
		logger.Warn("no --token-secret set, using the development signing secret")
	}

	// Background workers stop with ctx
	app.Start(ctx)

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		MatchesController:  app.MatchesController,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
		StorageType:        app.StorageType,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.host
	serverConfig.Port = cfg.port
	server := api.NewServer(ctx, mux, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType),
		slog.String("event_relay", cfg.eventRelay))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func factoryConfig(cfg *Config, logger *slog.Logger) factory.Config {
	authCfg := auth.DefaultConfig()
	authCfg.SessionDuration = cfg.sessionTTL
	authCfg.TokenIssuer = cfg.tokenIssuer
	if cfg.tokenSecret != "" {
		authCfg.TokenSecret = cfg.tokenSecret
	}

	fc := factory.Config{
		AuthConfig:  authCfg,
		Logger:      logger,
		StorageType: cfg.storage,
		EventRelay:  cfg.eventRelay,
	}

	if cfg.redisURL != "" {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		fc.RedisConfig = &redisCfg
	}
	if cfg.databaseURL != "" {
		pgCfg := pgstorage.DefaultConfig()
		pgCfg.DatabaseURL = cfg.databaseURL
		fc.PostgresConfig = &pgCfg
	}
	if cfg.mongoURI != "" {
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URI = cfg.mongoURI
		mongoCfg.Database = cfg.mongoDatabase
		fc.MongoConfig = &mongoCfg
	}

	return fc
}
