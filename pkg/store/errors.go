package store

import "errors"

var (
	// ErrStoreUnavailable is returned when the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("store: store unavailable")

	// ErrMalformedRow is returned for a row whose content is not a mergeable JSON value.
	ErrMalformedRow = errors.New("store: malformed row")

	// ErrInvalidKey is returned when page, section or language is empty or malformed.
	ErrInvalidKey = errors.New("store: invalid row key")

	// ErrQueryFailed is returned when the store answered but rejected the query.
	ErrQueryFailed = errors.New("store: query failed")
)
