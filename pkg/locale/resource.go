package locale

import (
	"encoding/json"
	"maps"
	"regexp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/localesync/pkg/pathcodec"
)

// M holds placeholder values for T.
type M map[string]any

// Snapshot is one immutable state of the translation resource. Documents
// must not be modified by callers.
type Snapshot struct {
	docs     map[string]pathcodec.Document
	loadedAt time.Time
	active   string
	version  uint64
}

// Active returns the active language.
func (s *Snapshot) Active() string { return s.active }

// Version increases with every swap.
func (s *Snapshot) Version() uint64 { return s.version }

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Languages returns the languages held in memory, sorted.
func (s *Snapshot) Languages() []string {
	return slices.Sorted(maps.Keys(s.docs))
}

// Document returns a copy of the in-memory document of language.
func (s *Snapshot) Document(language string) (pathcodec.Document, bool) {
	doc, ok := s.docs[language]
	if !ok {
		return nil, false
	}
	return pathcodec.Clone(doc), true
}

// Get resolves path in the in-memory document of language only.
func (s *Snapshot) Get(path, language string) (any, bool) {
	return lookupIn(s.docs[language], path)
}

// Resource is the shared translation resource. Readers are lock-free; writers
// are serialized and replace the snapshot wholesale.
type Resource struct {
	current  atomic.Pointer[Snapshot]
	defaults Defaults
	fallback string
	onMiss   func(language, path string)

	writeMu sync.Mutex

	subMu  sync.RWMutex
	subs   map[uint64]func(*Snapshot)
	nextID uint64
}

// ResourceOption configures a Resource.
type ResourceOption func(*Resource)

// WithMissingKeyHandler is called whenever a lookup falls through to the
// literal path.
func WithMissingKeyHandler(fn func(language, path string)) ResourceOption {
	return func(r *Resource) { r.onMiss = fn }
}

// NewResource creates a resource seeded with defaults. fallback is the
// language whose defaults back every other language. The initial snapshot
// holds the defaults and has fallback as the active language.
func NewResource(defaults Defaults, fallback string, opts ...ResourceOption) *Resource {
	r := &Resource{
		defaults: defaults.Clone(),
		fallback: fallback,
		subs:     make(map[uint64]func(*Snapshot)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(&Snapshot{docs: map[string]pathcodec.Document(r.defaults.Clone()), active: fallback, loadedAt: time.Now()})
	return r
}

// Snapshot returns the current snapshot.
func (r *Resource) Snapshot() *Snapshot {
	return r.current.Load()
}

// Active returns the active language.
func (r *Resource) Active() string {
	return r.Snapshot().active
}

// Defaults returns the compiled default document of language.
func (r *Resource) Defaults(language string) (pathcodec.Document, bool) {
	doc, ok := r.defaults[language]
	if !ok {
		return nil, false
	}
	return pathcodec.Clone(doc), true
}

// Subscribe registers fn for every future swap and returns a function that
// removes it. fn runs on the goroutine that performed the swap; when swaps
// race, compare Version to discard stale snapshots.
func (r *Resource) Subscribe(fn func(*Snapshot)) (unsubscribe func()) {
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
		})
	}
}

// update builds the next snapshot from the current one and swaps it in.
func (r *Resource) update(fn func(cur *Snapshot) (map[string]pathcodec.Document, string)) *Snapshot {
	r.writeMu.Lock()
	cur := r.current.Load()
	docs, active := fn(cur)
	next := &Snapshot{docs: docs, active: active, version: cur.version + 1, loadedAt: time.Now()}
	r.current.Store(next)
	r.writeMu.Unlock()

	r.subMu.RLock()
	subs := make([]func(*Snapshot), 0, len(r.subs))
	for _, id := range slices.Sorted(maps.Keys(r.subs)) {
		subs = append(subs, r.subs[id])
	}
	r.subMu.RUnlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Lookup resolves path for language. An empty language means the active one.
// It returns the path itself when no document has a value.
func (r *Resource) Lookup(path, language string) any {
	v, _ := r.Resolve(path, language)
	return v
}

// Resolve is Lookup that also reports whether the value came from a
// document. Both results are read from the same snapshot.
func (r *Resource) Resolve(path, language string) (any, bool) {
	snap := r.Snapshot()
	if language == "" {
		language = snap.active
	}
	if v, ok := r.resolve(snap, path, language); ok {
		return pathcodec.CloneValue(v), true
	}
	if r.onMiss != nil {
		r.onMiss(language, path)
	}
	return path, false
}

// Has reports whether path resolves anywhere in the chain.
func (r *Resource) Has(path, language string) bool {
	snap := r.Snapshot()
	if language == "" {
		language = snap.active
	}
	_, ok := r.resolve(snap, path, language)
	return ok
}

func (r *Resource) resolve(snap *Snapshot, path, language string) (any, bool) {
	if v, ok := lookupIn(snap.docs[language], path); ok {
		return v, true
	}
	if v, ok := lookupIn(r.defaults[language], path); ok {
		return v, true
	}
	if r.fallback != "" && r.fallback != language {
		if v, ok := lookupIn(r.defaults[r.fallback], path); ok {
			return v, true
		}
	}
	return nil, false
}

// LookupString is Lookup rendered as text. Strings are returned as is and
// other values as JSON.
func (r *Resource) LookupString(path, language string) string {
	switch v := r.Lookup(path, language).(type) {
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return path
		}
		return string(data)
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.-]+)\s*\}\}`)

// T looks up path and replaces {{name}} placeholders with values from args.
// Unknown placeholders are left in place.
func (r *Resource) T(path, language string, args M) string {
	return ReplacePlaceholders(r.LookupString(path, language), args)
}

// ReplacePlaceholders substitutes {{name}} and {{ name }} occurrences.
func ReplacePlaceholders(template string, args M) string {
	if len(args) == 0 {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := args[name]
		if !ok {
			return match
		}
		if s, ok := v.(string); ok {
			return s
		}
		data, err := json.Marshal(v)
		if err != nil {
			return match
		}
		return string(data)
	})
}

func lookupIn(doc pathcodec.Document, path string) (any, bool) {
	if doc == nil {
		return nil, false
	}
	v, ok := pathcodec.GetPath(doc, path)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
