package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Publisher receives every successfully rebuilt bundle document.
type Publisher interface {
	Publish(ctx context.Context, language string, document json.RawMessage) error
}

// Func adapts a function to Publisher.
type Func func(ctx context.Context, language string, document json.RawMessage) error

func (f Func) Publish(ctx context.Context, language string, document json.RawMessage) error {
	return f(ctx, language, document)
}

// Nop discards documents.
type Nop struct{}

func (Nop) Publish(context.Context, string, json.RawMessage) error { return nil }

var languagePattern = regexp.MustCompile(`^[A-Za-z]{2,8}(-[A-Za-z0-9]{1,8})*$`)

// ObjectKey returns the storage key of a language bundle under prefix.
func ObjectKey(prefix, language string) (string, error) {
	if !languagePattern.MatchString(language) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, language)
	}
	prefix = strings.Trim(prefix, "/ ")
	if prefix == "" {
		return language + ".json", nil
	}
	return prefix + "/" + language + ".json", nil
}
