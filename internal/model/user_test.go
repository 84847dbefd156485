package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinRate(t *testing.T) {
	tests := []struct {
		name  string
		stats UserStats
		want  int
	}{
		{"no games", UserStats{}, 0},
		{"all wins", UserStats{Wins: 3}, 100},
		{"all losses", UserStats{Losses: 3}, 0},
		{"rounds down", UserStats{Wins: 1, Losses: 2}, 33},
		{"rounds up", UserStats{Wins: 2, Losses: 1}, 67},
		{"half", UserStats{Wins: 5, Losses: 5}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.WinRate())
		})
	}
}

func TestPublicUserHasNoPassword(t *testing.T) {
	u := &User{ID: "u1", Email: "a@example.com", Username: "alice", PasswordHash: "secret-hash"}

	data, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
	assert.NotContains(t, string(data), "password")
}

func TestMatchClone(t *testing.T) {
	joined := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := &Match{ID: "m1", JoinedAt: &joined}

	c := m.Clone()
	*c.JoinedAt = c.JoinedAt.Add(1)
	assert.Equal(t, joined, *m.JoinedAt)
}

func TestEventParticipants(t *testing.T) {
	open := Event{Match: &Match{CreatedBy: "alice"}}
	assert.Equal(t, []UserID{"alice"}, open.Participants())

	joined := Event{Match: &Match{CreatedBy: "alice", Opponent: "bob"}}
	assert.Equal(t, []UserID{"alice", "bob"}, joined.Participants())

	registered := Event{UserID: "carol"}
	assert.Equal(t, []UserID{"carol"}, registered.Participants())
}
