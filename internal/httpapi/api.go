package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/localesync/pkg/health"
	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/pagecontent"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/rebuild"
	"github.com/dmitrymomot/localesync/pkg/store"
)

const defaultMaxBodySize = 1 << 20

// Backend is the part of the engine served over HTTP.
type Backend interface {
	Languages() []string
	Supports(lang string) bool
	Defaults(language string) (pathcodec.Document, bool)
	Content() store.ContentStore
	Bundles() store.BundleStore
	Pages() *pagecontent.Manager
	Resolve(path, language string) (any, bool)
	Rebuild(ctx context.Context, language string) (rebuild.Result, error)
	RebuildAll(ctx context.Context) rebuild.Report
	Healthcheck(ctx context.Context) error
}

// Enqueuer schedules background rebuilds. An empty language means all.
type Enqueuer interface {
	Enqueue(ctx context.Context, language string) error
}

// API serves the engine over HTTP.
type API struct {
	backend     Backend
	queue       Enqueuer
	log         *slog.Logger
	checks      health.Checks
	origins     []string
	maxBodySize int64
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.log = logger.OrNope(l) }
}

// WithQueue enables asynchronous rebuilds with POST /rebuild?async=true.
func WithQueue(q Enqueuer) Option {
	return func(a *API) { a.queue = q }
}

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return func(a *API) { a.checks[name] = fn }
}

// WithAllowedOrigins restricts CORS to origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(a *API) { a.origins = origins }
}

// WithMaxBodySize bounds request bodies. Default 1 MiB.
func WithMaxBodySize(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodySize = n
		}
	}
}

// New creates the API for backend.
func New(backend Backend, opts ...Option) *API {
	a := &API{
		backend:     backend,
		log:         logger.NewNope(),
		checks:      health.Checks{"bundles": backend.Healthcheck},
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, recoverer(a.log), cors(newCORSConfig(a.origins)))

	r.Get("/livez", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(a.checks, health.WithLogger(a.log)))

	r.Get("/locales", a.handle(a.listLocales))
	r.Get("/locales/{lang}", a.handle(a.getLocale))
	r.Get("/content", a.handle(a.listContent))
	r.Put("/content", a.handle(a.putContent))
	r.Delete("/content/{lang}/{page}/{section}", a.handle(a.deleteContent))
	r.Get("/pages/{page}", a.handle(a.getPage))
	r.Post("/rebuild", a.handle(a.rebuild))
	r.Get("/lookup", a.handle(a.lookup))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, newHTTPError(http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed), nil))
	})
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (a *API) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		herr := toHTTPError(err)
		if herr.Code >= http.StatusInternalServerError {
			a.log.ErrorContext(r.Context(), "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
		}
		writeError(w, r, herr)
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Success   bool   `json:"success"`
}

func writeError(w http.ResponseWriter, r *http.Request, herr *HTTPError) {
	id, _ := logger.RequestIDFromContext(r.Context())
	writeJSON(w, herr.Code, errorResponse{Error: herr.Message, Code: herr.ErrorCode, RequestID: id})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return newHTTPError(http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", err)
		}
		return errBadRequest("invalid JSON body", err)
	}
	return nil
}

func (a *API) language(code string) error {
	if !a.backend.Supports(code) {
		return newHTTPError(http.StatusNotFound, "unsupported_language", "unsupported language: "+code, nil)
	}
	return nil
}
