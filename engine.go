package localesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/localesync/pkg/livesync"
	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/notify"
	"github.com/dmitrymomot/localesync/pkg/pagecontent"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/rebuild"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// Engine wires the translation resource, bundle loader, rebuilder and live
// sync listeners behind one API.
type Engine struct {
	content   store.ContentStore
	bundles   store.BundleStore
	resource  *locale.Resource
	loader    *locale.Loader
	rebuilder *rebuild.Rebuilder
	pages     *pagecontent.Manager
	sync      *livesync.Listener
	auto      *livesync.Listener
	logger    *slog.Logger

	defaultLang  string
	fallbackLang string
	languages    []string

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// New creates an Engine. Without stores an in-memory store is used; when no
// subscriber is configured either, its writes drive the live listeners.
func New(opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logger.OrNope(o.logger)

	if len(o.languages) == 0 {
		o.languages = o.defaults.Languages()
	}
	if len(o.languages) == 0 {
		return nil, ErrNoLanguages
	}
	for _, lang := range o.languages {
		if err := locale.ValidateLanguage(lang); err != nil {
			return nil, errors.Join(ErrInvalidLanguage, err)
		}
	}
	if o.defaultLang == "" {
		o.defaultLang = o.languages[0]
	}
	if !slices.Contains(o.languages, o.defaultLang) {
		return nil, fmt.Errorf("%w: default language %q is not supported", ErrInvalidLanguage, o.defaultLang)
	}
	if o.fallbackLang == "" {
		o.fallbackLang = o.defaultLang
	}
	if err := locale.ValidateLanguage(o.fallbackLang); err != nil {
		return nil, errors.Join(ErrInvalidLanguage, err)
	}

	switch {
	case o.content == nil && o.bundles == nil:
		memOpts := []store.MemoryOption{}
		if o.subscriber == nil {
			hub := notify.NewHub()
			o.subscriber = hub
			memOpts = append(memOpts, store.WithPublisher(hub))
		}
		mem := store.NewMemory(memOpts...)
		o.content, o.bundles = mem, mem
	case o.content == nil || o.bundles == nil:
		return nil, ErrMissingStore
	}
	if o.autoRebuild && o.subscriber == nil {
		return nil, ErrAutoRebuildNoSync
	}

	e := &Engine{
		content:      o.content,
		bundles:      o.bundles,
		logger:       o.logger,
		defaultLang:  o.defaultLang,
		fallbackLang: o.fallbackLang,
		languages:    slices.Clone(o.languages),
	}

	e.resource = locale.NewResource(o.defaults, o.fallbackLang,
		locale.WithMissingKeyHandler(func(language, path string) {
			e.logger.Debug("missing translation",
				slog.String("language", language),
				slog.String("path", path),
			)
			if o.onMissing != nil {
				o.onMissing(language, path)
			}
		}),
	)

	loaderOpts := []locale.LoaderOption{
		locale.WithDefaultLanguage(o.defaultLang),
		locale.WithLoaderLogger(o.logger),
	}
	if o.preferences != nil {
		loaderOpts = append(loaderOpts, locale.WithPreferences(o.preferences, o.scope))
	}
	e.loader = locale.NewLoader(e.resource, o.bundles, o.languages, loaderOpts...)

	rebuildOpts := []rebuild.Option{
		rebuild.WithLanguages(o.languages...),
		rebuild.WithLogger(o.logger),
	}
	if o.publisher != nil {
		rebuildOpts = append(rebuildOpts, rebuild.WithPublisher(o.publisher))
	}
	e.rebuilder = rebuild.New(o.content, o.bundles, rebuildOpts...)

	pageOpts := []pagecontent.Option{
		pagecontent.WithLogger(o.logger),
		pagecontent.WithLookup(func(path, language string) (any, bool) {
			if !e.resource.Has(path, language) {
				return nil, false
			}
			return e.resource.Lookup(path, language), true
		}),
	}
	if o.pageCache != nil {
		pageOpts = append(pageOpts, pagecontent.WithCache(o.pageCache))
	}
	e.pages = pagecontent.NewManager(o.content, pageOpts...)

	if o.subscriber != nil {
		e.sync = livesync.New(o.subscriber, e.RefreshNow,
			livesync.WithName("translations"),
			livesync.WithTables(notify.TableContent, notify.TableBundles),
			livesync.WithLogger(o.logger),
		)
		if o.autoRebuild {
			e.auto = livesync.New(o.subscriber, func(ctx context.Context) error {
				return e.rebuilder.RebuildAll(ctx).Err()
			},
				livesync.WithName("auto-rebuild"),
				livesync.WithTables(notify.TableContent),
				livesync.WithLogger(o.logger),
			)
		}
	}

	return e, nil
}

// Start loads translations and starts the live listeners. An unreachable
// store is logged and the compiled defaults are served.
// The listeners run until Close.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true

	if err := e.loader.LoadAll(ctx); err != nil {
		e.logger.WarnContext(ctx, "serving compiled defaults", slog.Any("error", err))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	for _, l := range []*livesync.Listener{e.sync, e.auto} {
		if l == nil {
			continue
		}
		e.wg.Go(func() {
			if err := l.Run(runCtx); err != nil {
				e.logger.ErrorContext(runCtx, "live sync stopped", slog.Any("error", err))
			}
		})
	}
	return nil
}

// Close stops the listeners and releases the page cache. It is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	return e.pages.Close()
}

// Lookup resolves path in language, or in the active language when it is
// empty. It never fails: a missing path is returned as is.
func (e *Engine) Lookup(path, language string) any {
	return e.resource.Lookup(path, language)
}

// LookupString is Lookup rendered as text.
func (e *Engine) LookupString(path, language string) string {
	return e.resource.LookupString(path, language)
}

// T looks up a string and replaces {{name}} placeholders with args.
func (e *Engine) T(path, language string, args locale.M) string {
	return e.resource.T(path, language, args)
}

// Resolve is Lookup that also reports whether a translation was found,
// both taken from one snapshot.
func (e *Engine) Resolve(path, language string) (any, bool) {
	return e.resource.Resolve(path, language)
}

// Has reports whether path resolves in language without falling back to
// the literal path.
func (e *Engine) Has(path, language string) bool {
	return e.resource.Has(path, language)
}

// ActiveLanguage returns the active language.
func (e *Engine) ActiveLanguage() string {
	return e.resource.Active()
}

// SetActiveLanguage validates and activates code, persists the preference
// and notifies OnChange observers.
func (e *Engine) SetActiveLanguage(ctx context.Context, code string) error {
	if err := locale.ValidateLanguage(code); err != nil {
		return errors.Join(ErrInvalidLanguage, err)
	}
	return e.loader.SetActive(ctx, code)
}

// RefreshNow re-fetches bundles and drops cached page overrides. On failure
// the current translations are kept and the error is returned.
func (e *Engine) RefreshNow(ctx context.Context) error {
	if err := e.loader.Refresh(ctx); err != nil {
		return err
	}
	if err := e.pages.Clear(ctx); err != nil {
		e.logger.WarnContext(ctx, "failed to clear page cache", slog.Any("error", err))
	}
	return nil
}

// OnChange registers fn for every snapshot swap, including active language
// changes. The returned function unregisters it.
func (e *Engine) OnChange(fn func(*locale.Snapshot)) (unsubscribe func()) {
	return e.resource.Subscribe(fn)
}

// Snapshot returns the current translation snapshot.
func (e *Engine) Snapshot() *locale.Snapshot {
	return e.resource.Snapshot()
}

// Rebuild regenerates the bundle of one language.
func (e *Engine) Rebuild(ctx context.Context, language string) (rebuild.Result, error) {
	return e.rebuilder.Rebuild(ctx, language)
}

// RebuildAll regenerates the bundles of every supported language.
func (e *Engine) RebuildAll(ctx context.Context) rebuild.Report {
	return e.rebuilder.RebuildAll(ctx)
}

// SyncState reports whether the live listener is refreshing.
func (e *Engine) SyncState() livesync.State {
	if e.sync == nil {
		return livesync.Idle
	}
	return e.sync.State()
}

// Languages returns the supported languages.
func (e *Engine) Languages() []string { return slices.Clone(e.languages) }

// DefaultLanguage returns the language used when no preference is saved.
func (e *Engine) DefaultLanguage() string { return e.defaultLang }

// FallbackLanguage returns the language backing missing translations.
func (e *Engine) FallbackLanguage() string { return e.fallbackLang }

// Supports reports whether lang is supported.
func (e *Engine) Supports(lang string) bool { return slices.Contains(e.languages, lang) }

// Defaults returns a copy of the compiled default document of language.
func (e *Engine) Defaults(language string) (pathcodec.Document, bool) {
	return e.resource.Defaults(language)
}

// Content returns the content row store.
func (e *Engine) Content() store.ContentStore { return e.content }

// Bundles returns the bundle store.
func (e *Engine) Bundles() store.BundleStore { return e.bundles }

// Pages returns the page override manager.
func (e *Engine) Pages() *pagecontent.Manager { return e.pages }

// Rebuilder returns the rebuilder, for wiring into a background queue.
func (e *Engine) Rebuilder() *rebuild.Rebuilder { return e.rebuilder }

// Healthcheck reports whether the bundle store answers.
func (e *Engine) Healthcheck(ctx context.Context) error {
	_, err := e.bundles.Bundles(ctx, e.defaultLang)
	return err
}
