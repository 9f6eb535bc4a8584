package locale_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/store"
)

func TestLoader_LoadAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("store unavailable keeps compiled defaults", func(t *testing.T) {
		t.Parallel()

		mem := store.NewMemory()
		mem.SetUnavailable(true)
		res := locale.NewResource(testDefaults(), "en")

		err := locale.NewLoader(res, mem, []string{"en", "sl"}).LoadAll(ctx)
		require.ErrorIs(t, err, store.ErrStoreUnavailable)
		assert.Equal(t, "Default welcome", res.Lookup("home.hero.title", "en"))
		assert.Equal(t, "en", res.Active())
		assert.ElementsMatch(t, []string{"en", "sl"}, res.Snapshot().Languages())
	})

	t.Run("bundle replaces the language document instead of merging", func(t *testing.T) {
		t.Parallel()

		mem := store.NewMemory()
		require.NoError(t, mem.PutBundle(ctx, store.Bundle{Language: "en", Document: json.RawMessage(`{"only":"fetched"}`)}))
		res := locale.NewResource(testDefaults(), "en")
		require.NoError(t, locale.NewLoader(res, mem, []string{"en", "sl"}).LoadAll(ctx))

		doc, ok := res.Snapshot().Document("en")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"only": "fetched"}, map[string]any(doc))
	})

	t.Run("malformed bundle keeps the default", func(t *testing.T) {
		t.Parallel()

		mem := store.NewMemory()
		require.NoError(t, mem.PutBundle(ctx, store.Bundle{Language: "en", Document: json.RawMessage(`"not an object"`)}))
		res := locale.NewResource(testDefaults(), "en")
		require.NoError(t, locale.NewLoader(res, mem, []string{"en"}).LoadAll(ctx))

		_, ok := res.Snapshot().Get("home.hero.title", "en")
		assert.True(t, ok)
	})

	t.Run("active language from saved preference", func(t *testing.T) {
		t.Parallel()

		prefs := locale.NewMemoryPreferences()
		require.NoError(t, prefs.Set(ctx, "visitor-1", "sl"))
		res := locale.NewResource(testDefaults(), "en")

		loader := locale.NewLoader(res, store.NewMemory(), []string{"en", "sl"},
			locale.WithPreferences(prefs, "visitor-1"),
			locale.WithDefaultLanguage("en"),
		)
		require.NoError(t, loader.LoadAll(ctx))
		assert.Equal(t, "sl", res.Active())
	})

	t.Run("unsupported preference uses the default language", func(t *testing.T) {
		t.Parallel()

		prefs := locale.NewMemoryPreferences()
		require.NoError(t, prefs.Set(ctx, locale.DefaultScope, "de"))
		res := locale.NewResource(testDefaults(), "en")

		loader := locale.NewLoader(res, store.NewMemory(), []string{"sl", "en"}, locale.WithPreferences(prefs, ""))
		require.NoError(t, loader.LoadAll(ctx))
		assert.Equal(t, "sl", res.Active())
	})

	t.Run("repeated loads replace the snapshot", func(t *testing.T) {
		t.Parallel()

		res := locale.NewResource(testDefaults(), "en")
		loader := locale.NewLoader(res, store.NewMemory(), []string{"en"})
		require.NoError(t, loader.LoadAll(ctx))
		first := res.Snapshot()
		require.NoError(t, loader.LoadAll(ctx))

		assert.NotSame(t, first, res.Snapshot())
		assert.Equal(t, first.Version()+1, res.Snapshot().Version())
	})
}

func TestLoader_RefreshFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.PutBundle(ctx, store.Bundle{Language: "en", Document: json.RawMessage(`{"title":"Live"}`)}))

	res := locale.NewResource(testDefaults(), "en")
	loader := locale.NewLoader(res, mem, []string{"en"})
	require.NoError(t, loader.LoadAll(ctx))
	before := res.Snapshot()

	mem.SetUnavailable(true)
	require.ErrorIs(t, loader.Refresh(ctx), store.ErrStoreUnavailable)

	assert.Same(t, before, res.Snapshot())
	assert.Equal(t, "Live", res.Lookup("title", "en"))
}

// stallingBundles returns what it read on the first fetch only after release
// is closed. Later fetches pass straight through.
type stallingBundles struct {
	*store.Memory
	once    sync.Once
	fetched chan struct{}
	release chan struct{}
}

func (s *stallingBundles) Bundles(ctx context.Context, languages ...string) ([]store.Bundle, error) {
	bundles, err := s.Memory.Bundles(ctx, languages...)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.fetched)
		<-s.release
	}
	return bundles, err
}

func TestLoader_ConcurrentRefreshKeepsNewest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.PutBundle(ctx, store.Bundle{Language: "en", Document: json.RawMessage(`{"t":"old"}`)}))

	bundles := &stallingBundles{Memory: mem, fetched: make(chan struct{}), release: make(chan struct{})}
	res := locale.NewResource(nil, "en")
	loader := locale.NewLoader(res, bundles, []string{"en"})

	slow := make(chan error, 1)
	go func() { slow <- loader.Refresh(ctx) }()
	<-bundles.fetched

	require.NoError(t, mem.PutBundle(ctx, store.Bundle{Language: "en", Document: json.RawMessage(`{"t":"new"}`)}))
	fast := make(chan error, 1)
	go func() { fast <- loader.Refresh(ctx) }()

	assert.Never(t, func() bool { return len(fast) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"second refresh must wait for the one in flight")

	close(bundles.release)
	require.NoError(t, <-slow)
	require.NoError(t, <-fast)

	assert.Equal(t, "new", res.Lookup("t", "en"))
}

func TestLoader_RefreshReassertsActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	res := locale.NewResource(testDefaults(), "en")
	loader := locale.NewLoader(res, mem, []string{"en", "sl"})
	require.NoError(t, loader.LoadAll(ctx))
	require.NoError(t, loader.SetActive(ctx, "sl"))

	require.NoError(t, mem.PutBundle(ctx, store.Bundle{Language: "sl", Document: json.RawMessage(`{"title":"Novo"}`)}))
	require.NoError(t, loader.Refresh(ctx))

	assert.Equal(t, "sl", res.Active())
	assert.Equal(t, "Novo", res.Lookup("title", ""))
}

func TestLoader_SetActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := locale.NewMemoryPreferences()
	res := locale.NewResource(testDefaults(), "en")
	loader := locale.NewLoader(res, store.NewMemory(), []string{"en", "sl"}, locale.WithPreferences(prefs, "s1"))

	require.ErrorIs(t, loader.SetActive(ctx, "de"), locale.ErrUnsupportedLanguage)
	require.NoError(t, loader.SetActive(ctx, "sl"))

	saved, err := prefs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "sl", saved)
	assert.Equal(t, "sl", res.Active())

	_, err = prefs.Get(ctx, "other")
	require.ErrorIs(t, err, locale.ErrNoPreference)
}
