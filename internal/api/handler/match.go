package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/competecore/competecore/internal/api/middleware"
	"github.com/competecore/competecore/internal/api/request"
	"github.com/competecore/competecore/internal/api/response"
	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/services/matches"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// MatchHandler handles match endpoints
type MatchHandler struct {
	matchesController *matches.Controller
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchesController *matches.Controller) *MatchHandler {
	return &MatchHandler{
		matchesController: matchesController,
	}
}

// Create handles POST /api/v1/matches
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreateMatchRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	match, err := h.matchesController.CreateMatch(r.Context(), *user, req.Settings())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.MatchFromModel(match))
}

// Open handles GET /api/v1/matches/open
func (h *MatchHandler) Open(w http.ResponseWriter, r *http.Request) {
	list, err := h.matchesController.GetOpenMatches(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchesFromModel(list))
}

// Mine handles GET /api/v1/matches/mine
func (h *MatchHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	list, err := h.matchesController.GetUserMatches(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchesFromModel(list))
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	match, err := h.matchesController.GetMatch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// Join handles POST /api/v1/matches/{id}/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.MatchID(mux.Vars(r)["id"])

	match, err := h.matchesController.JoinMatch(r.Context(), id, *user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// JoinByCode handles POST /api/v1/matches/join
func (h *MatchHandler) JoinByCode(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.JoinByCodeRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		WriteError(w, NewInvalidRequestError("invite_code is required"))
		return
	}

	match, err := h.matchesController.JoinByInviteCode(r.Context(), model.InviteCode(code), *user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// Complete handles POST /api/v1/matches/{id}/complete
func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.MatchID(mux.Vars(r)["id"])

	var req request.CompleteMatchRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.WinnerID == "" {
		WriteError(w, NewInvalidRequestError("winner_id is required"))
		return
	}

	match, err := h.matchesController.CompleteMatch(r.Context(), id, user.ID, model.UserID(req.WinnerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}

// QRCode handles GET /api/v1/matches/{id}/qr and renders the invite code
// as a PNG
func (h *MatchHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > maxQRSize {
			WriteError(w, NewInvalidRequestError("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	match, err := h.matchesController.GetMatch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(string(match.InviteCode), qrcode.Medium, size)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
