package locale_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
)

func TestLoadJSONDefaults(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"en.json":       {Data: []byte(`{"home":{"hero":{"title":"Welcome"}},"stats":{"count":3}}`)},
		"sl.json":       {Data: []byte(`{"home":{"hero":{"title":"Pozdravljeni"}}}`)},
		"README.md":     {Data: []byte("ignored")},
		"nested/x.json": {Data: []byte(`{}`)},
	}

	defaults, err := locale.LoadJSONDefaults(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "sl"}, defaults.Languages())

	v, ok := pathcodec.GetPath(defaults["en"], "stats.count")
	require.True(t, ok)
	assert.Equal(t, float64(3), v)
}

func TestLoadYAMLDefaults(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"en.yaml": {Data: []byte("home:\n  hero:\n    title: Welcome\n  faq:\n    - q: Why\n      a: Because\nyears: 12\n")},
		"sl.yml":  {Data: []byte("home:\n  hero:\n    title: Pozdravljeni\n")},
	}

	defaults, err := locale.LoadYAMLDefaults(fsys)
	require.NoError(t, err)

	v, _ := pathcodec.GetPath(defaults["en"], "years")
	assert.Equal(t, float64(12), v)
	v, _ = pathcodec.GetPath(defaults["en"], "home.faq")
	assert.Equal(t, []any{map[string]any{"q": "Why", "a": "Because"}}, v)
	v, _ = pathcodec.GetPath(defaults["sl"], "home.hero.title")
	assert.Equal(t, "Pozdravljeni", v)
}

func TestLoadDefaults_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{name: "invalid json", fsys: fstest.MapFS{"en.json": {Data: []byte(`{`)}}},
		{name: "invalid language file name", fsys: fstest.MapFS{"not a language!.json": {Data: []byte(`{}`)}}},
		{name: "non-object document", fsys: fstest.MapFS{"en.json": {Data: []byte(`[1,2]`)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := locale.LoadJSONDefaults(tt.fsys)
			require.ErrorIs(t, err, locale.ErrInvalidDefaults)
		})
	}

	_, err := locale.LoadYAMLDefaults(fstest.MapFS{"en.yaml": {Data: []byte("a: 1")}, "en.yml": {Data: []byte("a: 2")}})
	require.ErrorIs(t, err, locale.ErrInvalidDefaults)
}

func TestDefaults_Clone(t *testing.T) {
	t.Parallel()

	d := locale.Defaults{"en": {"a": map[string]any{"b": "c"}}}
	c := d.Clone()
	c["en"]["a"].(map[string]any)["b"] = "changed"

	assert.Equal(t, "c", d["en"]["a"].(map[string]any)["b"])
}
