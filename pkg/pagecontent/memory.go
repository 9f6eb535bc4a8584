package pagecontent

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	expiresAt time.Time
	value     Sections
	key       string
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process cache with TTL expiry and LRU eviction once
// MaxEntries is reached.
type MemoryCache struct {
	items      map[string]*list.Element
	lru        *list.List
	now        func() time.Time
	done       chan struct{}
	defaultTTL time.Duration
	maxEntries int
	mu         sync.Mutex
	closed     bool
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryTTL sets the default TTL. Default 5 minutes.
func WithMemoryTTL(d time.Duration) MemoryOption {
	return func(c *MemoryCache) { c.defaultTTL = d }
}

// WithMaxEntries bounds the number of cached pages. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) { c.maxEntries = n }
}

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a memory cache. A janitor removes expired entries
// every cleanup interval when it is positive.
func NewMemoryCache(cleanup time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
		done:       make(chan struct{}),
		defaultTTL: 5 * time.Minute,
		maxEntries: 1000,
	}
	for _, opt := range opts {
		opt(c)
	}
	if cleanup > 0 {
		go c.janitor(cleanup)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (Sections, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	e := elem.Value.(*memoryEntry)
	if e.expired(c.now()) {
		c.remove(elem)
		return nil, ErrCacheMiss
	}
	c.lru.MoveToFront(elem)
	return e.value.Clone(), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value Sections, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*memoryEntry)
		e.value, e.expiresAt = value.Clone(), expiresAt
		c.lru.MoveToFront(elem)
		return nil
	}
	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		if oldest := c.lru.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	c.items[key] = c.lru.PushFront(&memoryEntry{key: key, value: value.Clone(), expiresAt: expiresAt})
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the janitor. It is idempotent.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *MemoryCache) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.deleteExpired()
		}
	}
}

func (c *MemoryCache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).expired(now) {
			c.remove(elem)
		}
		elem = prev
	}
}

// remove must be called with mu held.
func (c *MemoryCache) remove(elem *list.Element) {
	c.lru.Remove(elem)
	delete(c.items, elem.Value.(*memoryEntry).key)
}

var _ Cache = (*MemoryCache)(nil)
