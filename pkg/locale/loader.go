package locale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// DefaultScope is the preference scope used when none is configured.
const DefaultScope = "default"

// Loader fills a Resource from the bundle store.
type Loader struct {
	resource    *Resource
	bundles     store.BundleStore
	prefs       Preferences
	log         *slog.Logger
	languages   []string
	defaultLang string
	scope       string

	// Held across fetch and swap so an older fetch never replaces a newer one.
	refreshMu sync.Mutex
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPreferences reads and stores the active language in p under scope.
func WithPreferences(p Preferences, scope string) LoaderOption {
	return func(l *Loader) {
		l.prefs = p
		if scope != "" {
			l.scope = scope
		}
	}
}

// WithDefaultLanguage sets the language used when no preference is saved.
// Defaults to the first supported language.
func WithDefaultLanguage(lang string) LoaderOption {
	return func(l *Loader) { l.defaultLang = lang }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) { l.log = logger.OrNope(log) }
}

// NewLoader creates a loader for the supported languages.
func NewLoader(resource *Resource, bundles store.BundleStore, languages []string, opts ...LoaderOption) *Loader {
	l := &Loader{
		resource:  resource,
		bundles:   bundles,
		log:       logger.NewNope(),
		languages: slices.Clone(languages),
		scope:     DefaultScope,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.defaultLang == "" && len(l.languages) > 0 {
		l.defaultLang = l.languages[0]
	}
	return l
}

// Languages returns the supported languages.
func (l *Loader) Languages() []string {
	return slices.Clone(l.languages)
}

// Supports reports whether lang is a supported language.
func (l *Loader) Supports(lang string) bool {
	return slices.Contains(l.languages, lang)
}

// LoadAll rebuilds the resource from compiled defaults overlaid by fetched
// bundles and selects the active language from the saved preference or the
// default language. The resource is always swapped, even when the store is
// unreachable; the fetch error is returned for logging.
func (l *Loader) LoadAll(ctx context.Context) error {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	docs := make(map[string]pathcodec.Document, len(l.languages))
	for _, lang := range l.languages {
		if doc, ok := l.resource.defaults[lang]; ok {
			docs[lang] = doc
		} else {
			docs[lang] = pathcodec.Document{}
		}
	}

	fetched, fetchErr := l.fetch(ctx)
	maps.Copy(docs, fetched)

	active := l.savedLanguage(ctx)
	snap := l.resource.update(func(*Snapshot) (map[string]pathcodec.Document, string) {
		return docs, active
	})

	l.log.InfoContext(ctx, "translations loaded",
		slog.String("active", active),
		slog.Int("bundles", len(fetched)),
		slog.Uint64("version", snap.version),
	)
	return fetchErr
}

// Refresh re-fetches bundles, replaces the documents of every fetched
// language and re-asserts the active language. Concurrent refreshes run one
// at a time. On fetch failure the current
// snapshot is left untouched and the error is returned.
func (l *Loader) Refresh(ctx context.Context) error {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	fetched, err := l.fetch(ctx)
	if err != nil {
		l.log.ErrorContext(ctx, "refresh failed, keeping current translations", slog.Any("error", err))
		return err
	}

	snap := l.resource.update(func(cur *Snapshot) (map[string]pathcodec.Document, string) {
		docs := make(map[string]pathcodec.Document, len(cur.docs)+len(fetched))
		maps.Copy(docs, cur.docs)
		maps.Copy(docs, fetched)
		return docs, cur.active
	})

	l.log.DebugContext(ctx, "translations refreshed",
		slog.Int("bundles", len(fetched)),
		slog.Uint64("version", snap.version),
	)
	return nil
}

// SetActive switches the active language, saves the preference and
// re-asserts the resource. A failure to save the preference is logged
// and does not prevent the switch.
func (l *Loader) SetActive(ctx context.Context, lang string) error {
	if !l.Supports(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if l.prefs != nil {
		if err := l.prefs.Set(ctx, l.scope, lang); err != nil {
			l.log.WarnContext(ctx, "failed to save language preference", slog.Any("error", err))
		}
	}
	l.resource.update(func(cur *Snapshot) (map[string]pathcodec.Document, string) {
		return cur.docs, lang
	})
	return nil
}

// fetch returns the decoded bundles of supported languages. Bundles that do
// not decode are skipped.
func (l *Loader) fetch(ctx context.Context) (map[string]pathcodec.Document, error) {
	if l.bundles == nil {
		return nil, nil
	}
	bundles, err := l.bundles.Bundles(ctx, l.languages...)
	if err != nil {
		if !errors.Is(err, store.ErrStoreUnavailable) && !errors.Is(err, store.ErrQueryFailed) {
			err = errors.Join(store.ErrStoreUnavailable, err)
		}
		l.log.WarnContext(ctx, "failed to fetch bundles", slog.Any("error", err))
		return nil, err
	}

	out := make(map[string]pathcodec.Document, len(bundles))
	for _, b := range bundles {
		if !l.Supports(b.Language) {
			continue
		}
		doc, err := b.Decode()
		if err != nil {
			l.log.WarnContext(logger.WithLanguage(ctx, b.Language), "skipping malformed bundle", slog.Any("error", err))
			continue
		}
		out[b.Language] = doc
	}
	return out, nil
}

func (l *Loader) savedLanguage(ctx context.Context) string {
	if l.prefs == nil {
		return l.defaultLang
	}
	lang, err := l.prefs.Get(ctx, l.scope)
	switch {
	case errors.Is(err, ErrNoPreference):
		return l.defaultLang
	case err != nil:
		l.log.WarnContext(ctx, "failed to read language preference", slog.Any("error", err))
		return l.defaultLang
	case !l.Supports(lang):
		return l.defaultLang
	default:
		return lang
	}
}
