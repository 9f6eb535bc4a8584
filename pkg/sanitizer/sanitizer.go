// Package sanitizer cleans editor-supplied translation content before it is
// stored. Content strings are rendered as HTML by the site, so every string
// leaf passes through a bluemonday policy that keeps basic formatting and
// drops scripts, event handlers and unsafe URLs.
package sanitizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidJSON is returned by Content when the input is not a JSON value.
var ErrInvalidJSON = errors.New("sanitizer: invalid json content")

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br", "span",
			"strong", "b", "em", "i", "u",
			"ul", "ol", "li",
			"h2", "h3", "h4",
			"code", "pre", "blockquote",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// HTML keeps safe formatting tags and strips everything else.
// Strings without markup are returned unchanged so plain text is never
// entity-escaped.
func HTML(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	initPolicies()
	return safePolicy.Sanitize(s)
}

// Strip removes all markup and returns plain text.
func Strip(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	initPolicies()
	return strictPolicy.Sanitize(s)
}

// Content sanitizes every string leaf of a JSON value with HTML. Object keys,
// numbers, booleans and the overall shape are preserved.
func Content(raw json.RawMessage) (json.RawMessage, error) {
	return walkJSON(raw, HTML)
}

// ContentWith is Content with a custom policy. A nil policy returns raw as is.
func ContentWith(raw json.RawMessage, policy *bluemonday.Policy) (json.RawMessage, error) {
	if policy == nil {
		return raw, nil
	}
	return walkJSON(raw, func(s string) string {
		if !strings.ContainsAny(s, "<>") {
			return s
		}
		return policy.Sanitize(s)
	})
}

func walkJSON(raw json.RawMessage, fn func(string) string) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Join(ErrInvalidJSON, err)
	}
	if dec.More() {
		return nil, ErrInvalidJSON
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sanitizeValue(v, fn)); err != nil {
		return nil, errors.Join(ErrInvalidJSON, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sanitizeValue(v any, fn func(string) string) any {
	switch t := v.(type) {
	case string:
		return fn(t)
	case []any:
		for i := range t {
			t[i] = sanitizeValue(t[i], fn)
		}
		return t
	case map[string]any:
		for k, val := range t {
			t[k] = sanitizeValue(val, fn)
		}
		return t
	default:
		return v
	}
}
