package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/competecore/competecore/internal/api/middleware"
	"github.com/competecore/competecore/internal/api/response"
	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/services/auth"
	"github.com/competecore/competecore/internal/services/leaderboard"
	"github.com/competecore/competecore/internal/services/matches"
)

// UserHandler handles user, profile and leaderboard endpoints
type UserHandler struct {
	authService       *auth.Service
	leaderboard       *leaderboard.Service
	matchesController *matches.Controller
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, leaderboard *leaderboard.Service, matchesController *matches.Controller) *UserHandler {
	return &UserHandler{
		authService:       authService,
		leaderboard:       leaderboard,
		matchesController: matchesController,
	}
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	current := middleware.MustGetUser(r.Context())

	// The session holds a login-time snapshot; stats may have moved since
	user, err := h.authService.GetUser(r.Context(), current.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.GetAllUsers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UsersFromModel(users))
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.UserID(mux.Vars(r)["id"])

	profile, err := h.leaderboard.Profile(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}

// Matches handles GET /api/v1/users/{id}/matches
func (h *UserHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id := model.UserID(mux.Vars(r)["id"])

	if _, err := h.authService.GetUser(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	list, err := h.matchesController.GetUserMatches(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchesFromModel(list))
}

// Leaderboard handles GET /api/v1/leaderboard?by=wins|earnings&limit=n
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	by := leaderboard.Ranking(r.URL.Query().Get("by"))
	switch by {
	case "":
		by = leaderboard.RankByWins
	case leaderboard.RankByWins, leaderboard.RankByEarnings:
	default:
		WriteError(w, NewInvalidRequestError("by must be wins or earnings"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Top(r.Context(), by, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromEntries(by, entries))
}
