// Package events delivers state changes to stream subscribers, either
// in-process or relayed through Redis between server instances.
package events

import (
	"context"

	"github.com/competecore/competecore/internal/model"
)

// Publisher announces an event. Publishing never fails the caller's
// operation; delivery problems are logged by the implementation.
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// Dispatcher hands an event to local subscribers
type Dispatcher interface {
	Dispatch(event model.Event)
}

// Local delivers events straight to the in-process dispatcher
type Local struct {
	dispatcher Dispatcher
}

var _ Publisher = (*Local)(nil)

// NewLocal creates a new Local publisher
func NewLocal(dispatcher Dispatcher) *Local {
	return &Local{dispatcher: dispatcher}
}

// Publish dispatches the event immediately
func (l *Local) Publish(_ context.Context, event model.Event) {
	l.dispatcher.Dispatch(event)
}

// Nop discards every event
type Nop struct{}

var _ Publisher = Nop{}

// Publish does nothing
func (Nop) Publish(context.Context, model.Event) {}
