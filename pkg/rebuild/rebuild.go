package rebuild

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/publish"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// Result reports one language rebuild.
type Result struct {
	UpdatedAt      time.Time `json:"updatedAt"`
	Language       string    `json:"language"`
	TopLevelKeys   []string  `json:"topLevelKeys"`
	ItemsProcessed int       `json:"itemsProcessed"`
	Skipped        int       `json:"skipped,omitempty"`
}

// Report collects the outcome of a rebuild across languages.
type Report struct {
	Results map[string]Result
	Errors  map[string]error
}

// Err joins the per-language failures in language order. Nil when every
// language was rebuilt.
func (r Report) Err() error {
	var errs []error
	for _, lang := range slices.Sorted(maps.Keys(r.Errors)) {
		errs = append(errs, fmt.Errorf("%s: %w", lang, r.Errors[lang]))
	}
	return errors.Join(errs...)
}

// Rebuilder turns content rows into bundles.
type Rebuilder struct {
	content   store.ContentStore
	bundles   store.BundleStore
	publisher publish.Publisher
	log       *slog.Logger
	now       func() time.Time
	languages []string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Rebuilder.
type Option func(*Rebuilder)

// WithLanguages sets the languages RebuildAll processes and Rebuild accepts.
// Without it any language is accepted and RebuildAll does nothing.
func WithLanguages(languages ...string) Option {
	return func(r *Rebuilder) { r.languages = slices.Clone(languages) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rebuilder) { r.log = logger.OrNope(l) }
}

// WithPublisher publishes each stored bundle. Publishing failures are logged
// and do not fail the rebuild.
func WithPublisher(p publish.Publisher) Option {
	return func(r *Rebuilder) { r.publisher = p }
}

// WithClock overrides the time source for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Rebuilder) { r.now = now }
}

// New creates a Rebuilder reading from content and writing to bundles.
func New(content store.ContentStore, bundles store.BundleStore, opts ...Option) *Rebuilder {
	r := &Rebuilder{
		content:   content,
		bundles:   bundles,
		publisher: publish.Nop{},
		log:       logger.NewNope(),
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Languages returns the configured languages.
func (r *Rebuilder) Languages() []string {
	return slices.Clone(r.languages)
}

// Rebuild regenerates the bundle of one language.
func (r *Rebuilder) Rebuild(ctx context.Context, language string) (Result, error) {
	if language == "" || (len(r.languages) > 0 && !slices.Contains(r.languages, language)) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	ctx = logger.WithLanguage(ctx, language)

	// fetch, aggregate and persist are strictly ordered per language
	lock := r.lockFor(language)
	lock.Lock()
	defer lock.Unlock()

	rows, err := r.content.Rows(ctx, language)
	if err != nil {
		r.log.ErrorContext(ctx, "rebuild aborted, failed to fetch rows", slog.Any("error", err))
		return Result{}, errors.Join(ErrRebuildAborted, err)
	}

	doc, processed, skipped := r.aggregate(ctx, language, rows)

	data, err := json.Marshal(doc)
	if err != nil {
		return Result{}, errors.Join(ErrPersistFailed, err)
	}

	res := Result{
		UpdatedAt:      r.now().UTC(),
		Language:       language,
		TopLevelKeys:   slices.Sorted(maps.Keys(doc)),
		ItemsProcessed: processed,
		Skipped:        skipped,
	}
	if err := r.bundles.PutBundle(ctx, store.Bundle{Language: language, Document: data, UpdatedAt: res.UpdatedAt}); err != nil {
		r.log.ErrorContext(ctx, "failed to store bundle", slog.Any("error", err))
		return Result{}, errors.Join(ErrPersistFailed, err)
	}

	if err := r.publisher.Publish(ctx, language, data); err != nil {
		r.log.WarnContext(ctx, "failed to publish bundle", slog.Any("error", err))
	}

	r.log.InfoContext(ctx, "bundle rebuilt",
		slog.Int("items", processed),
		slog.Int("skipped", skipped),
	)
	return res, nil
}

// aggregate applies rows to an empty document in sorted path order. A row
// whose path is a prefix of another row's path is applied first, so deeper
// rows merge into a structured leaf instead of being replaced by it.
func (r *Rebuilder) aggregate(ctx context.Context, language string, rows []store.Row) (pathcodec.Document, int, int) {
	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b store.Row) int {
		return cmp.Compare(a.Path(), b.Path())
	})

	doc := pathcodec.Document{}
	processed, skipped := 0, 0
	for _, row := range rows {
		if row.Language != "" && row.Language != language {
			continue
		}
		value, err := row.Value()
		if err == nil {
			_, err = pathcodec.SetPath(doc, row.Path(), value)
		}
		if err != nil {
			skipped++
			r.log.WarnContext(ctx, "skipping malformed row",
				slog.String("page", row.Page),
				slog.String("section", row.Section),
				slog.Any("error", err),
			)
			continue
		}
		processed++
	}
	return doc, processed, skipped
}

// RebuildAll rebuilds every configured language concurrently. Each language
// runs to completion regardless of the others.
func (r *Rebuilder) RebuildAll(ctx context.Context) Report {
	report := Report{
		Results: make(map[string]Result, len(r.languages)),
		Errors:  make(map[string]error),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, lang := range r.languages {
		g.Go(func() error {
			res, err := r.Rebuild(ctx, lang)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors[lang] = err
				return nil
			}
			report.Results[lang] = res
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func (r *Rebuilder) lockFor(language string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[language]
	if !ok {
		l = &sync.Mutex{}
		r.locks[language] = l
	}
	return l
}
