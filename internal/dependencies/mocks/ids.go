package mocks

import (
	"fmt"
	"sync"

	"github.com/competecore/competecore/internal/dependencies/ids"
)

// MockIDs hands out queued ids, then sequential ones ("id-1", "id-2", ...)
type MockIDs struct {
	mu     sync.Mutex
	queued []string
	next   int
}

var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// NewID returns the next id
func (g *MockIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

// Queue adds ids to be returned before the sequential fallback
func (g *MockIDs) Queue(values ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queued = append(g.queued, values...)
}
