package pagecontent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/sanitizer"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// LookupFunc resolves a full path through the translation resource.
// It reports false when the path is missing everywhere.
type LookupFunc func(path, language string) (any, bool)

// Manager loads and edits page overrides.
type Manager struct {
	content store.ContentStore
	cache   Cache
	lookup  LookupFunc
	log     *slog.Logger
	group   singleflight.Group
	ttl     time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithCache replaces the default memory cache.
func WithCache(c Cache) Option {
	return func(m *Manager) { m.cache = c }
}

// WithTTL sets the TTL of cached pages. Zero uses the cache default.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithLookup sets the translation lookup consulted by Get after overrides.
func WithLookup(fn LookupFunc) Option {
	return func(m *Manager) { m.lookup = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = logger.OrNope(l) }
}

// NewManager creates a manager over content.
func NewManager(content store.ContentStore, opts ...Option) *Manager {
	m := &Manager{content: content, log: logger.NewNope()}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = NewMemoryCache(time.Minute)
	}
	return m
}

func cacheKey(page, language string) string {
	return page + ":" + language
}

// Load returns every section of page in language. On a miss all pages of the
// language are fetched in one query and cached together; a page with no
// overrides is cached as empty. When the store is
// unreachable the result is empty and nothing is cached.
func (m *Manager) Load(ctx context.Context, page, language string) (Sections, error) {
	if s, err := m.cache.Get(ctx, cacheKey(page, language)); err == nil {
		return s, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		m.log.WarnContext(ctx, "page cache read failed", slog.Any("error", err))
	}

	v, err, _ := m.group.Do(language, func() (any, error) {
		return m.fill(ctx, language)
	})
	if err != nil {
		m.log.ErrorContext(logger.WithLanguage(ctx, language), "failed to load page content",
			slog.String("page", page),
			slog.Any("error", err),
		)
		return Sections{}, err
	}
	sections, ok := v.(map[string]Sections)[page]
	if !ok {
		// Pages without overrides are cached empty so they stop hitting the store.
		sections = Sections{}
		if err := m.cache.Set(ctx, cacheKey(page, language), sections, m.ttl); err != nil {
			m.log.WarnContext(ctx, "page cache write failed", slog.Any("error", err))
		}
	}
	return sections.Clone(), nil
}

func (m *Manager) fill(ctx context.Context, language string) (map[string]Sections, error) {
	rows, err := m.content.Rows(ctx, language)
	if err != nil {
		if !errors.Is(err, store.ErrStoreUnavailable) {
			err = errors.Join(store.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	pages := make(map[string]Sections)
	for _, row := range rows {
		value, err := row.Value()
		if err != nil {
			m.log.WarnContext(ctx, "skipping malformed row", slog.String("key", row.Key()), slog.Any("error", err))
			continue
		}
		if pages[row.Page] == nil {
			pages[row.Page] = Sections{}
		}
		pages[row.Page][row.Section] = value
	}
	for page, sections := range pages {
		if err := m.cache.Set(ctx, cacheKey(page, language), sections, m.ttl); err != nil {
			m.log.WarnContext(ctx, "page cache write failed", slog.Any("error", err))
		}
	}
	return pages, nil
}

// Get resolves page.section for language: the override, then the
// translation lookup, then fallback when not empty, then the path.
func (m *Manager) Get(ctx context.Context, page, section, language, fallback string) any {
	sections, _ := m.Load(ctx, page, language)
	if v, ok := sections[section]; ok {
		return v
	}
	path := pathcodec.Join(page, section)
	if m.lookup != nil {
		if v, ok := m.lookup(path, language); ok {
			return v
		}
	}
	if fallback != "" {
		return fallback
	}
	return path
}

// Save sanitizes content, writes the override to the store and updates the
// cached page.
func (m *Manager) Save(ctx context.Context, page, section, language string, content json.RawMessage) error {
	clean, err := sanitizer.Content(content)
	if err != nil {
		return errors.Join(store.ErrMalformedRow, err)
	}
	row := store.Row{Page: page, Section: section, Language: language, Content: clean}
	if err := row.Validate(); err != nil {
		return err
	}
	value, _ := row.Value()
	if err := m.content.Upsert(ctx, row); err != nil {
		return err
	}

	m.patch(ctx, page, language, func(s Sections) { s[section] = value })
	return nil
}

// Delete removes the override from the store and the cached page.
func (m *Manager) Delete(ctx context.Context, page, section, language string) error {
	if err := m.content.Delete(ctx, page, section, language); err != nil {
		return err
	}
	m.patch(ctx, page, language, func(s Sections) { delete(s, section) })
	return nil
}

// patch edits a cached page in place. Uncached pages are left for the next Load.
func (m *Manager) patch(ctx context.Context, page, language string, fn func(Sections)) {
	key := cacheKey(page, language)
	s, err := m.cache.Get(ctx, key)
	if err != nil {
		return
	}
	s = s.Clone()
	fn(s)
	if err := m.cache.Set(ctx, key, s, m.ttl); err != nil {
		m.log.WarnContext(ctx, "page cache write failed, invalidating", slog.Any("error", err))
		_ = m.cache.Delete(ctx, key)
	}
}

// Invalidate drops the cached page.
func (m *Manager) Invalidate(ctx context.Context, page, language string) error {
	return m.cache.Delete(ctx, cacheKey(page, language))
}

// Clear drops every cached page.
func (m *Manager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Close releases the cache.
func (m *Manager) Close() error {
	return m.cache.Close()
}
