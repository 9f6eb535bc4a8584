package sanitizer_test

import (
	"encoding/json"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/sanitizer"
)

func TestHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips script but keeps safe tags",
			input:    `<p>Hello</p><script>alert('xss')</script>`,
			expected: "<p>Hello</p>",
		},
		{
			name:     "keeps basic formatting",
			input:    `<p>Hello <strong>world</strong></p>`,
			expected: "<p>Hello <strong>world</strong></p>",
		},
		{
			name:     "adds nofollow to links",
			input:    `<a href="https://example.com">link</a>`,
			expected: `<a href="https://example.com" rel="nofollow">link</a>`,
		},
		{
			name:     "drops event handlers",
			input:    `<img src="x" onerror="alert('xss')">`,
			expected: "",
		},
		{
			name:     "plain text is untouched",
			input:    `Terms & Conditions`,
			expected: `Terms & Conditions`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizer.HTML(tt.input))
		})
	}
}

func TestStrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hello world", sanitizer.Strip(`<p>Hello <strong>world</strong></p>`))
	assert.Equal(t, "Fish & Chips", sanitizer.Strip("Fish & Chips"))
}

func TestContent(t *testing.T) {
	t.Parallel()

	t.Run("sanitizes nested string leaves", func(t *testing.T) {
		t.Parallel()

		raw := json.RawMessage(`{"title":"<b>Hi</b><script>x()</script>","items":["ok","<i>a</i>"],"count":3,"on":true}`)
		out, err := sanitizer.Content(raw)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"<b>Hi</b>","items":["ok","<i>a</i>"],"count":3,"on":true}`, string(out))
	})

	t.Run("scalar string", func(t *testing.T) {
		t.Parallel()

		out, err := sanitizer.Content(json.RawMessage(`"<p>Hello</p><script>1</script>"`))
		require.NoError(t, err)
		assert.Equal(t, `"<p>Hello</p>"`, string(out))
	})

	t.Run("large numbers keep precision", func(t *testing.T) {
		t.Parallel()

		out, err := sanitizer.Content(json.RawMessage(`{"n":12345678901234567890}`))
		require.NoError(t, err)
		assert.Equal(t, `{"n":12345678901234567890}`, string(out))
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		_, err := sanitizer.Content(json.RawMessage(`{"a":`))
		require.ErrorIs(t, err, sanitizer.ErrInvalidJSON)

		_, err = sanitizer.Content(json.RawMessage(`"a" "b"`))
		require.ErrorIs(t, err, sanitizer.ErrInvalidJSON)
	})
}

func TestContentWith(t *testing.T) {
	t.Parallel()

	out, err := sanitizer.ContentWith(json.RawMessage(`{"a":"<p>x</p>"}`), bluemonday.StrictPolicy())
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x"}`, string(out))

	raw := json.RawMessage(`{"a":"<p>x</p>"}`)
	same, err := sanitizer.ContentWith(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, same)
}
