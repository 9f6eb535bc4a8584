//go:build integration

package locale_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/redis"
)

func TestRedisPreferences(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefs := locale.NewRedisPreferences(client,
		locale.WithPreferencePrefix("localesync:test:"+t.Name()+":"),
		locale.WithPreferenceTTL(time.Minute),
	)

	_, err = prefs.Get(ctx, "visitor")
	require.ErrorIs(t, err, locale.ErrNoPreference)

	require.NoError(t, prefs.Set(ctx, "visitor", "sl"))
	lang, err := prefs.Get(ctx, "visitor")
	require.NoError(t, err)
	assert.Equal(t, "sl", lang)
}
