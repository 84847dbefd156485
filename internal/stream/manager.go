package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/competecore/competecore/internal/model"
)

// TopicMatches is the public feed every match event is published to
const TopicMatches = "matches"

// UserTopic returns the personal topic for a user
func UserTopic(id model.UserID) string {
	return "user:" + string(id)
}

// HubManager owns the hubs for all topics and routes events to them
type HubManager struct {
	hubs   map[string]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[string]*Hub),
		logger: logger.With(slog.String("component", "stream")),
	}
}

// GetOrCreateHub returns the hub for a topic, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(topic string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(topic)
}

func (m *HubManager) getOrCreateLocked(topic string) *Hub {
	if hub, ok := m.hubs[topic]; ok {
		return hub
	}

	hub := NewHub(topic, m.logger)
	m.hubs[topic] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a topic, or nil if it doesn't exist
func (m *HubManager) GetHub(topic string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[topic]
}

// Subscribe registers a new client with every given topic. The returned
// function unsubscribes it again and must be called when the connection ends.
func (m *HubManager) Subscribe(userID model.UserID, topics ...string) (*Client, func()) {
	client := NewClient(userID)

	m.mu.Lock()
	hubs := make([]*Hub, 0, len(topics))
	for _, topic := range topics {
		hub := m.getOrCreateLocked(topic)
		if hub.Register(client) {
			hubs = append(hubs, hub)
		}
	}
	m.mu.Unlock()

	return client, func() {
		for _, hub := range hubs {
			hub.Unregister(client)
		}
	}
}

// Dispatch encodes an event and delivers it to subscribers of the public
// feed and of the personal topic of everyone it concerns
func (m *HubManager) Dispatch(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	msg := Message{Event: string(event.Type), Data: data}

	topics := []string{TopicMatches}
	for _, id := range event.Participants() {
		topics = append(topics, UserTopic(id))
	}

	// A client subscribed to several of these topics gets one copy
	recipients := make(map[*Client]struct{})
	for _, topic := range topics {
		if hub := m.GetHub(topic); hub != nil {
			hub.collect(recipients)
		}
	}

	dropped := 0
	for client := range recipients {
		if !client.deliver(msg) {
			dropped++
			m.logger.Warn("stream message dropped - client buffer full",
				slog.String("user_id", string(client.userID)))
		}
	}
	if dropped > 0 {
		m.logger.Warn("stream dispatch partial failure",
			slog.String("type", string(event.Type)),
			slog.Int("sent", len(recipients)-dropped),
			slog.Int("dropped", dropped))
	}
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[topic]; ok {
		hub.Close()
		delete(m.hubs, topic)
		m.logger.Info("stream hub removed", slog.String("topic", topic))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for topic, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, topic)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("stream empty hubs cleaned up", slog.Int("removed", removedCount))
	}
	return removedCount
}

// RunJanitor removes empty hubs on every tick until ctx is cancelled
func (m *HubManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupEmptyHubs()
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for topic, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, topic)
	}
}
