//go:build integration

package pagecontent_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/pagecontent"
	"github.com/dmitrymomot/localesync/pkg/redis"
	"github.com/dmitrymomot/localesync/pkg/store"
)

func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redis.Shutdown(client)(context.Background()) })

	c := pagecontent.NewRedisCache(client,
		pagecontent.WithRedisPrefix("localesync:test:"+t.Name()),
		pagecontent.WithRedisTTL(time.Minute),
	)
	t.Cleanup(func() { _ = c.Clear(ctx) })

	_, err = c.Get(ctx, "home:en")
	require.ErrorIs(t, err, pagecontent.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "home:en", pagecontent.Sections{"title": "Hi", "count": 2.0}, 0))
	got, err := c.Get(ctx, "home:en")
	require.NoError(t, err)
	assert.Equal(t, pagecontent.Sections{"title": "Hi", "count": 2.0}, got)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "home:en")
	require.ErrorIs(t, err, pagecontent.ErrCacheMiss)

	t.Run("manager over redis cache", func(t *testing.T) {
		s := store.NewMemory()
		row, err := store.NewRow("home", "title", "en", "Hi")
		require.NoError(t, err)
		require.NoError(t, s.Upsert(ctx, row))

		m := pagecontent.NewManager(s, pagecontent.WithCache(c))
		sections, err := m.Load(ctx, "home", "en")
		require.NoError(t, err)
		assert.Equal(t, "Hi", sections["title"])

		cached, err := c.Get(ctx, "home:en")
		require.NoError(t, err)
		assert.Equal(t, "Hi", cached["title"])
	})
}
