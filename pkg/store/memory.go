package store

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/localesync/pkg/notify"
)

// Memory is an in-memory ContentStore and BundleStore.
// When a publisher is configured, every write emits a change event the way
// the database triggers do for Postgres.
type Memory struct {
	rows        map[string]Row
	bundles     map[string]Bundle
	publisher   notify.Publisher
	now         func() time.Time
	mu          sync.RWMutex
	unavailable bool
}

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithPublisher emits change events for every write.
func WithPublisher(p notify.Publisher) MemoryOption {
	return func(m *Memory) {
		m.publisher = p
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		rows:    make(map[string]Row),
		bundles: make(map[string]Bundle),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUnavailable simulates a transport outage: while set, every operation
// fails with ErrStoreUnavailable.
func (m *Memory) SetUnavailable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = v
}

// Rows implements ContentStore. Rows are returned sorted by key.
func (m *Memory) Rows(_ context.Context, language string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailable {
		return nil, ErrStoreUnavailable
	}

	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		if language == "" || r.Language == language {
			out = append(out, cloneRow(r))
		}
	}
	slices.SortFunc(out, func(a, b Row) int {
		return cmp.Compare(a.Key(), b.Key())
	})
	return out, nil
}

// Upsert implements ContentStore.
func (m *Memory) Upsert(ctx context.Context, row Row) error {
	if err := row.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.unavailable {
		m.mu.Unlock()
		return ErrStoreUnavailable
	}
	op := m.upsertLocked(row)
	m.mu.Unlock()

	if op != "" {
		m.publish(ctx, notify.TableContent, op, row)
	}
	return nil
}

// Import implements ContentStore. Either all rows are stored or none.
func (m *Memory) Import(ctx context.Context, rows []Row) error {
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if m.unavailable {
		m.mu.Unlock()
		return ErrStoreUnavailable
	}
	changed := 0
	for _, r := range rows {
		if m.upsertLocked(r) != "" {
			changed++
		}
	}
	m.mu.Unlock()

	if changed > 0 {
		m.publish(ctx, notify.TableContent, notify.OpUpdate, nil)
	}
	return nil
}

// upsertLocked stores r and returns the operation performed, or "" when the
// stored content was already identical. Caller must hold the write lock.
func (m *Memory) upsertLocked(r Row) string {
	r = cloneRow(r)
	r.Content = compact(r.Content)

	key := r.Key()
	prev, exists := m.rows[key]
	if exists && bytes.Equal(prev.Content, r.Content) {
		return ""
	}

	r.UpdatedAt = m.now()
	m.rows[key] = r
	if exists {
		return notify.OpUpdate
	}
	return notify.OpInsert
}

// Delete implements ContentStore.
func (m *Memory) Delete(ctx context.Context, page, section, language string) error {
	m.mu.Lock()
	if m.unavailable {
		m.mu.Unlock()
		return ErrStoreUnavailable
	}
	key := Row{Page: page, Section: section, Language: language}.Key()
	prev, existed := m.rows[key]
	delete(m.rows, key)
	m.mu.Unlock()

	if existed {
		m.publish(ctx, notify.TableContent, notify.OpDelete, prev)
	}
	return nil
}

// Bundles implements BundleStore. Bundles are returned sorted by language.
func (m *Memory) Bundles(_ context.Context, languages ...string) ([]Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailable {
		return nil, ErrStoreUnavailable
	}

	out := make([]Bundle, 0, len(m.bundles))
	for lang, b := range m.bundles {
		if len(languages) > 0 && !slices.Contains(languages, lang) {
			continue
		}
		b.Document = slices.Clone(b.Document)
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Bundle) int {
		return cmp.Compare(a.Language, b.Language)
	})
	return out, nil
}

// PutBundle implements BundleStore.
func (m *Memory) PutBundle(ctx context.Context, b Bundle) error {
	if b.Language == "" {
		return ErrInvalidKey
	}
	if !json.Valid(b.Document) {
		return ErrMalformedRow
	}

	m.mu.Lock()
	if m.unavailable {
		m.mu.Unlock()
		return ErrStoreUnavailable
	}
	_, existed := m.bundles[b.Language]
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = m.now()
	}
	b.Document = slices.Clone(b.Document)
	m.bundles[b.Language] = b
	m.mu.Unlock()

	op := notify.OpInsert
	if existed {
		op = notify.OpUpdate
	}
	m.publish(ctx, notify.TableBundles, op, map[string]any{"lang": b.Language, "updated_at": b.UpdatedAt})
	return nil
}

func (m *Memory) publish(ctx context.Context, table, op string, row any) {
	if m.publisher == nil {
		return
	}
	_ = m.publisher.Publish(ctx, notify.NewEvent(table, op, row))
}

func cloneRow(r Row) Row {
	r.Content = slices.Clone(r.Content)
	return r
}

func compact(data json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return data
	}
	return buf.Bytes()
}

var (
	_ ContentStore = (*Memory)(nil)
	_ BundleStore  = (*Memory)(nil)
)
