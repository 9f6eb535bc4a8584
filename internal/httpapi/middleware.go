package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/localesync/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// requestID reuses an upstream request ID or generates one, stores it in
// the context for logging and echoes it in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

const stackSize = 4096

func recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				log.ErrorContext(r.Context(), "panic recovered",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(stack)),
				)
				writeError(w, r, newHTTPError(http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError), nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsConfig mirrors the original edge functions, which allowed any origin.
type corsConfig struct {
	origins []string
	methods string
	headers string
	maxAge  string
}

func newCORSConfig(origins []string) corsConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return corsConfig{
		origins: origins,
		methods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", "),
		headers: strings.Join([]string{"Content-Type", "Authorization", "X-Client-Info", "Apikey", requestIDHeader}, ", "),
		maxAge:  strconv.Itoa(int((12 * time.Hour).Seconds())),
	}
}

func cors(cfg corsConfig) func(http.Handler) http.Handler {
	wildcard := slices.Contains(cfg.origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!wildcard && !slices.Contains(cfg.origins, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Expose-Headers", requestIDHeader)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", cfg.methods)
				h.Set("Access-Control-Allow-Headers", cfg.headers)
				h.Set("Access-Control-Max-Age", cfg.maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
