package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// InviteCode is a short human-readable code for sharing a match
type InviteCode string

// MatchStatus represents where a match is in its lifecycle
type MatchStatus string

const (
	MatchStatusOpen       MatchStatus = "open"        // Waiting for an opponent
	MatchStatusInProgress MatchStatus = "in-progress" // Opponent joined
	MatchStatusCompleted  MatchStatus = "completed"   // Result reported
)

// MatchType is the category of a match
type MatchType string

const (
	MatchTypeCasual MatchType = "casual"
	MatchTypeWager  MatchType = "wager"
	MatchTypeRanked MatchType = "ranked"
)

// MatchSettings are the rules chosen by the creator
type MatchSettings struct {
	GameMode          string    `json:"game_mode"`
	InputMethod       string    `json:"input_method"`
	WeaponRestriction string    `json:"weapon_restriction"`
	ScoreLimit        int       `json:"score_limit"`
	TimeLimit         int       `json:"time_limit"` // minutes
	WagerAmount       float64   `json:"wager_amount"`
	Type              MatchType `json:"type"`
}

// Match is a 1v1 challenge posted by one user and accepted by another
type Match struct {
	ID                MatchID    `json:"id"`
	InviteCode        InviteCode `json:"invite_code"`
	CreatedBy         UserID     `json:"created_by"`
	CreatedByUsername string     `json:"created_by_username"`
	Opponent          UserID     `json:"opponent,omitempty"`
	OpponentUsername  string     `json:"opponent_username,omitempty"`

	MatchSettings

	Status      MatchStatus `json:"status"`
	WinnerID    UserID      `json:"winner_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	JoinedAt    *time.Time  `json:"joined_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`

	// Version increments on every update and guards concurrent writers
	Version int64 `json:"version"`
}

// IsOpen returns true if the match is still accepting an opponent
func (m *Match) IsOpen() bool {
	return m.Status == MatchStatusOpen
}

// HasParticipant returns true if the user created or joined the match
func (m *Match) HasParticipant(userID UserID) bool {
	return userID != "" && (m.CreatedBy == userID || m.Opponent == userID)
}

// OtherParticipant returns the participant who is not userID
func (m *Match) OtherParticipant(userID UserID) UserID {
	if m.CreatedBy == userID {
		return m.Opponent
	}
	return m.CreatedBy
}

// Clone returns a deep copy of the match
func (m *Match) Clone() *Match {
	c := *m
	if m.JoinedAt != nil {
		t := *m.JoinedAt
		c.JoinedAt = &t
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
