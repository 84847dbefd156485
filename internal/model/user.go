package model

import (
	"math"
	"time"
)

// UserID uniquely identifies a registered user
type UserID string

// UserStats tracks a user's competitive record
type UserStats struct {
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Earnings float64 `json:"earnings"`
}

// GamesPlayed returns the number of decided matches
func (s UserStats) GamesPlayed() int {
	return s.Wins + s.Losses
}

// WinRate returns wins / (wins + losses) as a percentage rounded to the
// nearest integer, or 0 when no games have been played
func (s UserStats) WinRate() int {
	games := s.GamesPlayed()
	if games == 0 {
		return 0
	}
	return int(math.Round(float64(s.Wins) * 100 / float64(games)))
}

// User is a registered account. PasswordHash never leaves the storage and
// auth layers; use Public() for anything handed to callers.
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	JoinedAt     time.Time `json:"joined_at"`
	Stats        UserStats `json:"stats"`
}

// PublicUser is a User with credentials stripped
type PublicUser struct {
	ID       UserID    `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
	Stats    UserStats `json:"stats"`
}

// Public returns the user without its password hash
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		JoinedAt: u.JoinedAt,
		Stats:    u.Stats,
	}
}
