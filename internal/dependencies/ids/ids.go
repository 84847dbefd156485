package ids

import (
	"github.com/google/uuid"
)

// Generator produces unique identifiers for users, matches and sessions
type Generator interface {
	NewID() string
}

// UUIDv7 generates time-ordered UUIDs. Sorting ids lexically sorts them by
// creation time, and two ids minted in the same millisecond still differ.
type UUIDv7 struct{}

// New creates a new UUIDv7 generator
func New() *UUIDv7 {
	return &UUIDv7{}
}

// NewID returns a fresh UUIDv7, falling back to a random v4 if the
// system clock or entropy source fails
func (g *UUIDv7) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
