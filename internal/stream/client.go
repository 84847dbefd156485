package stream

import (
	"sync"
	"time"

	"github.com/competecore/competecore/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Time allowed to read the next pong from a websocket peer
	pongWait = 60 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one subscriber connection. A client may be registered with
// several hubs at once and receives all of their messages on one channel.
type Client struct {
	userID      model.UserID
	send        chan Message
	closed      chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
}

// NewClient creates a new client for the given (possibly anonymous) user
func NewClient(userID model.UserID) *Client {
	return &Client{
		userID:      userID,
		send:        make(chan Message, sendBufferSize),
		closed:      make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// Messages returns the channel messages are delivered on
func (c *Client) Messages() <-chan Message {
	return c.send
}

// Done is closed when a hub the client is registered with shuts down
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// deliver queues a message without blocking. Returns false if the buffer is full.
func (c *Client) deliver(message Message) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
