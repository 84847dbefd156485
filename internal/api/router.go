package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/competecore/competecore/internal/api/handler"
	"github.com/competecore/competecore/internal/api/middleware"
	"github.com/competecore/competecore/internal/api/response"
	"github.com/competecore/competecore/internal/services/auth"
	"github.com/competecore/competecore/internal/services/leaderboard"
	"github.com/competecore/competecore/internal/services/matches"
	"github.com/competecore/competecore/internal/stream"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	MatchesController  *matches.Controller
	LeaderboardService *leaderboard.Service
	HubManager         *stream.HubManager
	StorageType        string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	userHandler := handler.NewUserHandler(cfg.AuthService, cfg.LeaderboardService, cfg.MatchesController)
	matchHandler := handler.NewMatchHandler(cfg.MatchesController)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Standard(cfg.Logger)...)

	// Auth routes (no session needed to sign up or log in)
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.Handle("/auth/logout", authMiddleware(http.HandlerFunc(authHandler.Logout))).Methods(http.MethodPost)

	// User routes
	api.Handle("/users/me", authMiddleware(http.HandlerFunc(userHandler.GetMe))).Methods(http.MethodGet)
	api.HandleFunc("/users", userHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", userHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/matches", userHandler.Matches).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", userHandler.Leaderboard).Methods(http.MethodGet)

	// Public match routes
	api.HandleFunc("/matches/open", matchHandler.Open).Methods(http.MethodGet)

	// Protected match routes
	protected := api.PathPrefix("/matches").Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("", matchHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/mine", matchHandler.Mine).Methods(http.MethodGet)
	protected.HandleFunc("/join", matchHandler.JoinByCode).Methods(http.MethodPost)
	protected.HandleFunc("/{id}/join", matchHandler.Join).Methods(http.MethodPost)
	protected.HandleFunc("/{id}/complete", matchHandler.Complete).Methods(http.MethodPost)

	api.HandleFunc("/matches/{id}", matchHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/qr", matchHandler.QRCode).Methods(http.MethodGet)

	// Event streams; a session adds the personal topic
	api.Handle("/events", optionalAuthMiddleware(http.HandlerFunc(eventsHandler.SSE))).Methods(http.MethodGet)
	api.Handle("/events/ws", optionalAuthMiddleware(http.HandlerFunc(eventsHandler.WebSocket))).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.StorageType)).Methods(http.MethodGet)

	return r
}

func healthHandler(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
