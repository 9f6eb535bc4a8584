package redis

import (
	"context"
	"errors"
	"io"

	"github.com/redis/go-redis/v9"
)

var (
	ErrMissingURL  = errors.New("redis: REDIS_URL is not set")
	ErrInvalidURL  = errors.New("redis: URL must use the redis:// or rediss:// scheme")
	ErrUnreachable = errors.New("redis: server did not answer PING")
	ErrNotReady    = errors.New("redis: client not ready")
)

// Healthcheck reports whether the pub/sub and page cache backend answers.
// A nil client is reported as not ready rather than panicking, so the probe
// can be registered before the connection exists.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrNotReady
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrNotReady, ErrUnreachable, err)
		}
		return nil
	}
}

// Shutdown closes the client when the server stops.
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		if client == nil {
			return nil
		}
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
		return nil
	}
}
