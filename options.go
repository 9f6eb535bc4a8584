package localesync

import (
	"log/slog"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/notify"
	"github.com/dmitrymomot/localesync/pkg/pagecontent"
	"github.com/dmitrymomot/localesync/pkg/publish"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// Store is a backend holding both content rows and bundles.
type Store interface {
	store.ContentStore
	store.BundleStore
}

// Option configures the Engine.
type Option func(*options)

type options struct {
	defaults     locale.Defaults
	content      store.ContentStore
	bundles      store.BundleStore
	subscriber   notify.Subscriber
	preferences  locale.Preferences
	publisher    publish.Publisher
	pageCache    pagecontent.Cache
	logger       *slog.Logger
	onMissing    func(language, path string)
	defaultLang  string
	fallbackLang string
	scope        string
	languages    []string
	autoRebuild  bool
}

// WithLanguages sets the supported languages.
// Defaults to the languages of the compiled defaults.
func WithLanguages(languages ...string) Option {
	return func(o *options) {
		o.languages = append(o.languages[:0], languages...)
	}
}

// WithDefaultLanguage sets the active language used when no preference is
// saved. Defaults to the first supported language.
func WithDefaultLanguage(lang string) Option {
	return func(o *options) { o.defaultLang = lang }
}

// WithFallbackLanguage sets the language whose compiled defaults back every
// other language. Defaults to the default language.
func WithFallbackLanguage(lang string) Option {
	return func(o *options) { o.fallbackLang = lang }
}

// WithDefaults sets the compiled default documents.
func WithDefaults(d locale.Defaults) Option {
	return func(o *options) { o.defaults = d }
}

// WithStore uses s for both content rows and bundles.
func WithStore(s Store) Option {
	return func(o *options) {
		o.content = s
		o.bundles = s
	}
}

// WithContentStore sets the content row store.
func WithContentStore(s store.ContentStore) Option {
	return func(o *options) { o.content = s }
}

// WithBundleStore sets the bundle store.
func WithBundleStore(s store.BundleStore) Option {
	return func(o *options) { o.bundles = s }
}

// WithSubscriber enables live updates from change events.
func WithSubscriber(s notify.Subscriber) Option {
	return func(o *options) { o.subscriber = s }
}

// WithPreferences persists the active language in p under scope.
// An empty scope uses locale.DefaultScope.
func WithPreferences(p locale.Preferences, scope string) Option {
	return func(o *options) {
		o.preferences = p
		o.scope = scope
	}
}

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAutoRebuild rebuilds bundles whenever content rows change.
// It requires a subscriber.
func WithAutoRebuild(enabled bool) Option {
	return func(o *options) { o.autoRebuild = enabled }
}

// WithPublisher publishes every rebuilt bundle.
func WithPublisher(p publish.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithPageCache sets the cache used for page overrides.
// Defaults to an in-memory LRU.
func WithPageCache(c pagecontent.Cache) Option {
	return func(o *options) { o.pageCache = c }
}

// WithMissingKeyHandler is called for every lookup that falls through to
// the literal path.
func WithMissingKeyHandler(fn func(language, path string)) Option {
	return func(o *options) { o.onMissing = fn }
}
