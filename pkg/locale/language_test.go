package locale_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/locale"
)

func TestValidateLanguage(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"en", "sl", "pt-BR", "zh-Hant"} {
		require.NoError(t, locale.ValidateLanguage(code), code)
	}
	for _, code := range []string{"", " ", "not a tag", "en--US"} {
		require.ErrorIs(t, locale.ValidateLanguage(code), locale.ErrInvalidLanguage, code)
	}
}

func TestParseAcceptLanguage(t *testing.T) {
	t.Parallel()

	available := []string{"en", "sl"}
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty header", header: "", want: "en"},
		{name: "exact match", header: "sl", want: "sl"},
		{name: "regional variant", header: "sl-SI,sl;q=0.9,en;q=0.8", want: "sl"},
		{name: "quality ordering", header: "de;q=1.0,en;q=0.5,sl;q=0.9", want: "sl"},
		{name: "no match", header: "fr,de", want: "en"},
		{name: "malformed", header: ";;;q=x", want: "en"},
		{name: "oversized", header: strings.Repeat("x", 5000), want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, locale.ParseAcceptLanguage(tt.header, available))
		})
	}

	assert.Empty(t, locale.ParseAcceptLanguage("en", nil))
}
