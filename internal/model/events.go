package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventMatchCreated   EventType = "match_created"
	EventMatchJoined    EventType = "match_joined"
	EventMatchCompleted EventType = "match_completed"
	EventUserRegistered EventType = "user_registered"
)

// Event describes a state change that subscribers are notified about
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	MatchID   MatchID     `json:"match_id,omitempty"`
	UserID    UserID      `json:"user_id,omitempty"` // The user who triggered the event
	Match     *Match      `json:"match,omitempty"`
	User      *PublicUser `json:"user,omitempty"`
}

// Participants returns the users an event concerns directly
func (e Event) Participants() []UserID {
	if e.Match == nil {
		if e.UserID != "" {
			return []UserID{e.UserID}
		}
		return nil
	}
	ids := []UserID{e.Match.CreatedBy}
	if e.Match.Opponent != "" {
		ids = append(ids, e.Match.Opponent)
	}
	return ids
}
