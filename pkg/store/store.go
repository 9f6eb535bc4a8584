package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/localesync/pkg/pathcodec"
)

// Row is one editable leaf value addressed by page, section and language.
// (Page, Section, Language) is unique; Content holds the current value.
type Row struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Page      string          `json:"page"`
	Section   string          `json:"section"`
	Language  string          `json:"language"`
	Content   json.RawMessage `json:"content"`
}

// Path returns the full dotted path of the row: page + "." + section.
func (r Row) Path() string {
	return pathcodec.Join(r.Page, r.Section)
}

// Key returns the unique key of the row.
func (r Row) Key() string {
	return r.Language + ":" + r.Path()
}

// Validate checks the row key and that Content is a non-null JSON value.
func (r Row) Validate() error {
	if err := ValidateKey(r.Page, r.Section, r.Language); err != nil {
		return err
	}
	if _, err := r.Value(); err != nil {
		return err
	}
	return nil
}

// Value decodes Content into the JSON tagged union used by documents.
func (r Row) Value() (any, error) {
	trimmed := bytes.TrimSpace(r.Content)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s has empty content", ErrMalformedRow, r.Key())
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRow, r.Key(), err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s has null content", ErrMalformedRow, r.Key())
	}
	return v, nil
}

// ValidateKey checks that a row key can be addressed by the path codec.
func ValidateKey(page, section, language string) error {
	if language == "" {
		return fmt.Errorf("%w: empty language", ErrInvalidKey)
	}
	if page == "" || strings.Contains(page, pathcodec.Separator) {
		return fmt.Errorf("%w: page %q", ErrInvalidKey, page)
	}
	if _, err := pathcodec.Split(section); err != nil {
		return fmt.Errorf("%w: section %q: %v", ErrInvalidKey, section, err)
	}
	return nil
}

// NewRow builds a row with content marshaled from v.
func NewRow(page, section, language string, v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	r := Row{Page: page, Section: section, Language: language, Content: data}
	if err := r.Validate(); err != nil {
		return Row{}, err
	}
	return r, nil
}

// Bundle is the aggregated document of one language.
type Bundle struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Language  string          `json:"lang"`
	Document  json.RawMessage `json:"content"`
}

// Decode parses the bundle document.
func (b Bundle) Decode() (pathcodec.Document, error) {
	var doc pathcodec.Document
	if err := json.Unmarshal(b.Document, &doc); err != nil {
		return nil, fmt.Errorf("%w: bundle %s: %v", ErrMalformedRow, b.Language, err)
	}
	if doc == nil {
		doc = pathcodec.Document{}
	}
	return doc, nil
}

// ContentStore is the table of editable rows.
type ContentStore interface {
	// Rows returns all rows for language, or for every language when it is empty.
	Rows(ctx context.Context, language string) ([]Row, error)

	// Upsert creates or replaces the row with the same key. Idempotent.
	Upsert(ctx context.Context, row Row) error

	// Delete removes a row. Deleting a missing row is not an error.
	Delete(ctx context.Context, page, section, language string) error

	// Import upserts many rows atomically.
	Import(ctx context.Context, rows []Row) error
}

// BundleStore is the table of aggregated per-language documents.
type BundleStore interface {
	// Bundles returns the bundles for the given languages, or all bundles when
	// none are given. Missing languages are simply absent from the result.
	Bundles(ctx context.Context, languages ...string) ([]Bundle, error)

	// PutBundle replaces the bundle of b.Language in a single upsert.
	PutBundle(ctx context.Context, b Bundle) error
}
