package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/localesync/pkg/logger"
)

// DefaultRedisChannel is the pub/sub channel used by Redis.
const DefaultRedisChannel = "localesync:changes"

// Redis publishes and subscribes to change events over Redis pub/sub.
// The client lifecycle is managed by the caller (see pkg/redis.Shutdown).
type Redis struct {
	client  redis.UniversalClient
	logger  *slog.Logger
	channel string
	buffer  int
}

// RedisOption configures Redis.
type RedisOption func(*Redis)

// WithRedisChannel sets the pub/sub channel. Default: DefaultRedisChannel.
func WithRedisChannel(name string) RedisOption {
	return func(r *Redis) {
		r.channel = name
	}
}

// WithRedisLogger sets the logger for decode errors.
func WithRedisLogger(log *slog.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = logger.OrNope(log)
	}
}

// NewRedis creates a Redis-backed Publisher and Subscriber.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		logger:  logger.NewNope(),
		channel: DefaultRedisChannel,
		buffer:  defaultBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish sends ev to the channel.
func (r *Redis) Publish(ctx context.Context, ev Event) error {
	if r.channel == "" {
		return ErrInvalidChannel
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe listens on the channel until ctx is done.
// go-redis reconnects the subscription on its own after network errors.
func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, error) {
	if r.channel == "" {
		return nil, ErrInvalidChannel
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	// Wait for the subscription confirmation so failures surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	out := make(chan Event, r.buffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := DecodeEvent([]byte(msg.Payload))
				if err != nil {
					r.logger.WarnContext(ctx, "notify: malformed payload",
						slog.String("channel", r.channel),
						slog.Any("error", err),
					)
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, nil
}

var (
	_ Subscriber = (*Redis)(nil)
	_ Publisher  = (*Redis)(nil)
)
