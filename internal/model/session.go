package model

import "time"

// SessionID identifies a login session
type SessionID string

// Session is an authenticated login. It holds a snapshot of the user taken
// at login time, never the password hash.
type Session struct {
	ID        SessionID  `json:"id"`
	UserID    UserID     `json:"user_id"`
	User      PublicUser `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// IsExpired reports whether the session has expired at the given time
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
