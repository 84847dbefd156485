package handler

import (
	"log/slog"
	"net/http"

	"github.com/competecore/competecore/internal/api/middleware"
	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/stream"
)

// EventsHandler streams match and user events
type EventsHandler struct {
	hubManager *stream.HubManager
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *stream.HubManager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "events-handler")),
	}
}

// SSE handles GET /api/v1/events
func (h *EventsHandler) SSE(w http.ResponseWriter, r *http.Request) {
	client, unsubscribe := h.subscribe(r)
	defer unsubscribe()

	stream.ServeSSE(w, r, client)
}

// WebSocket handles GET /api/v1/events/ws
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	client, unsubscribe := h.subscribe(r)
	defer unsubscribe()

	stream.ServeWS(w, r, client, h.logger)
}

// subscribe joins the public feed, plus the personal topic when the
// request is authenticated
func (h *EventsHandler) subscribe(r *http.Request) (*stream.Client, func()) {
	topics := []string{stream.TopicMatches}
	var userID model.UserID
	if user := middleware.GetUser(r.Context()); user != nil {
		userID = user.ID
		topics = append(topics, stream.UserTopic(user.ID))
	}

	h.logger.Debug("stream client connected",
		slog.String("user_id", string(userID)),
		slog.Int("topics", len(topics)))

	return h.hubManager.Subscribe(userID, topics...)
}
