package locale

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Preferences persists the language chosen per scope (a user, a session or
// a single embedded client).
type Preferences interface {
	// Get returns ErrNoPreference when nothing was saved for scope.
	Get(ctx context.Context, scope string) (string, error)
	Set(ctx context.Context, scope, language string) error
}

// MemoryPreferences keeps preferences in process memory.
type MemoryPreferences struct {
	mu    sync.RWMutex
	langs map[string]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{langs: make(map[string]string)}
}

func (p *MemoryPreferences) Get(_ context.Context, scope string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	lang, ok := p.langs[scope]
	if !ok {
		return "", ErrNoPreference
	}
	return lang, nil
}

func (p *MemoryPreferences) Set(_ context.Context, scope, language string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.langs[scope] = language
	return nil
}

const defaultPreferencePrefix = "localesync:lang:"

// RedisPreferences stores one key per scope.
type RedisPreferences struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisPreferencesOption configures RedisPreferences.
type RedisPreferencesOption func(*RedisPreferences)

// WithPreferencePrefix sets the key prefix. Default "localesync:lang:".
func WithPreferencePrefix(prefix string) RedisPreferencesOption {
	return func(p *RedisPreferences) { p.prefix = prefix }
}

// WithPreferenceTTL expires preferences after d. Zero keeps them forever.
func WithPreferenceTTL(d time.Duration) RedisPreferencesOption {
	return func(p *RedisPreferences) { p.ttl = d }
}

func NewRedisPreferences(client redis.UniversalClient, opts ...RedisPreferencesOption) *RedisPreferences {
	p := &RedisPreferences{client: client, prefix: defaultPreferencePrefix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RedisPreferences) Get(ctx context.Context, scope string) (string, error) {
	lang, err := p.client.Get(ctx, p.prefix+scope).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoPreference
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPreferenceStore, err)
	}
	return lang, nil
}

func (p *RedisPreferences) Set(ctx context.Context, scope, language string) error {
	if err := p.client.Set(ctx, p.prefix+scope, language, p.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPreferenceStore, err)
	}
	return nil
}

var (
	_ Preferences = (*MemoryPreferences)(nil)
	_ Preferences = (*RedisPreferences)(nil)
)
