package response

import (
	"time"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/services/auth"
	"github.com/competecore/competecore/internal/services/leaderboard"
)

// Stats represents a user's record in API responses
type Stats struct {
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Earnings    float64 `json:"earnings"`
	WinRate     int     `json:"win_rate"`
	GamesPlayed int     `json:"games_played"`
}

// StatsFromModel converts model.UserStats and adds derived values
func StatsFromModel(s model.UserStats) Stats {
	return Stats{
		Wins:        s.Wins,
		Losses:      s.Losses,
		Earnings:    s.Earnings,
		WinRate:     s.WinRate(),
		GamesPlayed: s.GamesPlayed(),
	}
}

// User represents a user in API responses
type User struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
	Stats    Stats     `json:"stats"`
}

// UserFromModel converts a model.PublicUser to a response User
func UserFromModel(u *model.PublicUser) User {
	return User{
		ID:       string(u.ID),
		Email:    u.Email,
		Username: u.Username,
		JoinedAt: u.JoinedAt,
		Stats:    StatsFromModel(u.Stats),
	}
}

// UsersFromModel converts a list of public users
func UsersFromModel(users []model.PublicUser) []User {
	result := make([]User, 0, len(users))
	for i := range users {
		result = append(result, UserFromModel(&users[i]))
	}
	return result
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Profile is a user together with their leaderboard position
type Profile struct {
	User User `json:"user"`
	Rank int  `json:"rank"`
}

// ProfileFromModel converts a leaderboard.Profile
func ProfileFromModel(p *leaderboard.Profile) Profile {
	return Profile{
		User: UserFromModel(&p.User),
		Rank: p.Rank,
	}
}

// LeaderboardEntry is one row of a leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Stats    Stats  `json:"stats"`
}

// Leaderboard is the response for the leaderboard endpoint
type Leaderboard struct {
	By      string             `json:"by"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromEntries converts leaderboard entries
func LeaderboardFromEntries(by leaderboard.Ranking, entries []leaderboard.Entry) Leaderboard {
	result := Leaderboard{By: string(by), Entries: make([]LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		result.Entries = append(result.Entries, LeaderboardEntry{
			Rank:     e.Rank,
			UserID:   string(e.User.ID),
			Username: e.User.Username,
			Stats:    StatsFromModel(e.User.Stats),
		})
	}
	return result
}

// Match represents a match in API responses
type Match struct {
	ID                string     `json:"id"`
	InviteCode        string     `json:"invite_code"`
	CreatedBy         string     `json:"created_by"`
	CreatedByUsername string     `json:"created_by_username"`
	Opponent          string     `json:"opponent,omitempty"`
	OpponentUsername  string     `json:"opponent_username,omitempty"`
	GameMode          string     `json:"game_mode"`
	InputMethod       string     `json:"input_method"`
	WeaponRestriction string     `json:"weapon_restriction"`
	ScoreLimit        int        `json:"score_limit"`
	TimeLimit         int        `json:"time_limit"`
	WagerAmount       float64    `json:"wager_amount"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	WinnerID          string     `json:"winner_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	JoinedAt          *time.Time `json:"joined_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// MatchFromModel converts a model.Match to a response Match
func MatchFromModel(m *model.Match) Match {
	return Match{
		ID:                string(m.ID),
		InviteCode:        string(m.InviteCode),
		CreatedBy:         string(m.CreatedBy),
		CreatedByUsername: m.CreatedByUsername,
		Opponent:          string(m.Opponent),
		OpponentUsername:  m.OpponentUsername,
		GameMode:          m.GameMode,
		InputMethod:       m.InputMethod,
		WeaponRestriction: m.WeaponRestriction,
		ScoreLimit:        m.ScoreLimit,
		TimeLimit:         m.TimeLimit,
		WagerAmount:       m.WagerAmount,
		Type:              string(m.Type),
		Status:            string(m.Status),
		WinnerID:          string(m.WinnerID),
		CreatedAt:         m.CreatedAt,
		JoinedAt:          m.JoinedAt,
		CompletedAt:       m.CompletedAt,
	}
}

// MatchesFromModel converts a list of matches
func MatchesFromModel(matches []*model.Match) []Match {
	result := make([]Match, 0, len(matches))
	for _, m := range matches {
		result = append(result, MatchFromModel(m))
	}
	return result
}

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
