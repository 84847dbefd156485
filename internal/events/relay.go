package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/competecore/competecore/internal/model"
)

// DefaultChannel is the Redis pub/sub channel events are relayed on
const DefaultChannel = "competecore:events"

// RedisRelay publishes events to a Redis channel and forwards everything
// received on that channel to the local dispatcher, so every instance
// sharing the Redis server notifies its own subscribers.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	dispatcher Dispatcher
	logger     *slog.Logger
}

var _ Publisher = (*RedisRelay)(nil)

// NewRedisRelay creates a relay on the given channel
func NewRedisRelay(client *redis.Client, channel string, dispatcher Dispatcher, logger *slog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:     client,
		channel:    channel,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "event-relay")),
	}
}

// Publish sends the event to Redis. If Redis is unreachable the event is
// still dispatched locally so this instance's subscribers see it.
func (r *RedisRelay) Publish(ctx context.Context, event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Warn("failed to relay event, delivering locally",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		r.dispatcher.Dispatch(event)
	}
}

// Run subscribes to the channel and forwards events until ctx is cancelled.
// The returned channel is closed once the subscription is active.
func (r *RedisRelay) Run(ctx context.Context) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		sub := r.client.Subscribe(ctx, r.channel)
		defer sub.Close()

		if _, err := sub.Receive(ctx); err != nil {
			r.logger.Error("failed to subscribe to event channel", slog.Any("error", err))
			close(ready)
			return
		}
		close(ready)
		r.logger.Info("event relay subscribed", slog.String("channel", r.channel))

		messages := sub.Channel()
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event model.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("discarding malformed event", slog.Any("error", err))
					continue
				}
				r.dispatcher.Dispatch(event)

			case <-ctx.Done():
				return
			}
		}
	}()
	return ready
}
