package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
)

func TestSeedRows(t *testing.T) {
	t.Parallel()

	defaults := locale.Defaults{
		"en": pathcodec.Document{
			"home":    map[string]any{"hero": map[string]any{"title": "Welcome"}, "faq": []any{"a", "b"}},
			"tagline": "top-level leaf",
		},
		"sl": pathcodec.Document{"home": map[string]any{"hero": map[string]any{"title": "Pozdravljeni"}}},
		"de": pathcodec.Document{"home": map[string]any{"hero": map[string]any{"title": "Willkommen"}}},
	}

	rows, skipped := seedRows(defaults, []string{"en", "sl"})
	assert.Equal(t, []string{"en:tagline"}, skipped)

	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.Key())
	}
	assert.ElementsMatch(t, []string{"en:home.hero.title", "en:home.faq", "sl:home.hero.title"}, keys)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	t.Run("empty dir setting", func(t *testing.T) {
		t.Parallel()
		d, err := loadDefaults("")
		require.NoError(t, err)
		assert.Empty(t, d)
	})

	t.Run("json and yaml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"home":{"title":"Hi"}}`), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sl.yaml"), []byte("home:\n  title: Živjo\n"), 0o600))

		d, err := loadDefaults(dir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"en", "sl"}, d.Languages())
	})

	t.Run("duplicate language", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{}`), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yml"), []byte("{}"), 0o600))

		_, err := loadDefaults(dir)
		require.ErrorIs(t, err, locale.ErrInvalidDefaults)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_CONN_URL", "postgres://localhost/test")
	t.Setenv("LOCALESYNC_LANGUAGES", "en,sl,de")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "sl", "de"}, cfg.Languages)
	assert.Equal(t, "postgres", cfg.Notify)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.AutoRebuild)
	assert.Equal(t, "locales", cfg.Publish.Prefix)

	t.Setenv("LOCALESYNC_NOTIFY", "kafka")
	_, err = loadConfig()
	require.Error(t, err)
}
