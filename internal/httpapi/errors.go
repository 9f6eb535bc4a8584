package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/rebuild"
	"github.com/dmitrymomot/localesync/pkg/sanitizer"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// HTTPError is an error with a status code and a user-facing message.
type HTTPError struct {
	// Err is the underlying error, logged and never exposed.
	Err error

	Message   string
	ErrorCode string
	Code      int
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return e.Err }

func newHTTPError(code int, errorCode, message string, err error) *HTTPError {
	return &HTTPError{Code: code, ErrorCode: errorCode, Message: message, Err: err}
}

func errBadRequest(message string, err error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, "bad_request", message, err)
}

func errNotFound(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, "not_found", message, nil)
}

// toHTTPError maps domain errors to HTTP errors.
func toHTTPError(err error) *HTTPError {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr
	}
	switch {
	case errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, store.ErrMalformedRow),
		errors.Is(err, sanitizer.ErrInvalidJSON),
		errors.Is(err, locale.ErrInvalidLanguage):
		return errBadRequest(err.Error(), err)
	case errors.Is(err, locale.ErrUnsupportedLanguage),
		errors.Is(err, rebuild.ErrUnknownLanguage):
		return newHTTPError(http.StatusNotFound, "unsupported_language", err.Error(), err)
	case errors.Is(err, store.ErrStoreUnavailable):
		return newHTTPError(http.StatusServiceUnavailable, "store_unavailable", "content store is unavailable", err)
	default:
		return newHTTPError(http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError), err)
	}
}
