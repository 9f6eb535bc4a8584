package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, "")
		require.ErrorIs(t, err, ErrMissingURL)
		require.Nil(t, client)
	})

	for _, url := range []string{
		"http://localhost:6379",
		"localhost:6379",
		"postgres://localhost:6379",
		"redis://localhost:notaport",
		"redis://localhost:6379/notanumber",
	} {
		t.Run(url, func(t *testing.T) {
			t.Parallel()

			client, err := Open(ctx, url)
			require.ErrorIs(t, err, ErrInvalidURL)
			require.Nil(t, client)
		})
	}
}

func TestConnect_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{PoolSize: 3})
	require.ErrorIs(t, err, ErrMissingURL)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
}

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{err: errors.New("boom")}
	err := Shutdown(c)(context.Background())
	require.EqualError(t, err, "boom")
	assert.True(t, c.closed)

	require.NoError(t, Shutdown(nil)(context.Background()))
}

func TestWait(t *testing.T) {
	t.Parallel()

	t.Run("cancelled context returns immediately", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		require.ErrorIs(t, wait(ctx, 10*time.Second), context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("waits for the full duration", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		require.NoError(t, wait(context.Background(), 30*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
}

func TestOptions(t *testing.T) {
	t.Parallel()

	o := defaultOptions()
	assert.Equal(t, 10, o.poolSize)
	assert.Equal(t, 2, o.minIdleConns)
	assert.Equal(t, 3, o.retryAttempts)

	for _, opt := range []Option{
		WithPoolSize(25),
		WithMinIdleConns(4),
		WithRetry(5, time.Second),
		WithDialTimeout(time.Second),
		WithIOTimeout(500 * time.Millisecond),
	} {
		opt(o)
	}
	assert.Equal(t, 25, o.poolSize)
	assert.Equal(t, 4, o.minIdleConns)
	assert.Equal(t, 5, o.retryAttempts)
	assert.Equal(t, time.Second, o.retryInterval)
	assert.Equal(t, time.Second, o.dialTimeout)
	assert.Equal(t, 500*time.Millisecond, o.ioTimeout)
}
