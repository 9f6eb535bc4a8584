package pagecontent

import (
	"context"
	"errors"
	"maps"
	"time"
)

var (
	ErrCacheMiss   = errors.New("pagecontent: cache miss")
	ErrCacheClosed = errors.New("pagecontent: cache closed")
	ErrCacheCodec  = errors.New("pagecontent: cache encoding failed")
)

// Sections maps a section path within a page to its value.
type Sections map[string]any

// Clone returns a shallow copy. Values are treated as immutable.
func (s Sections) Clone() Sections {
	if s == nil {
		return Sections{}
	}
	return maps.Clone(s)
}

// Cache stores Sections by key.
//
// TTL semantics for Set: positive expires after the duration, zero uses the
// cache default, negative never expires.
type Cache interface {
	// Get returns ErrCacheMiss for absent or expired keys.
	Get(ctx context.Context, key string) (Sections, error)
	Set(ctx context.Context, key string, value Sections, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
