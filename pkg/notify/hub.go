package notify

import (
	"context"
	"sync"
)

const defaultBufferSize = 16

// Hub is an in-process Publisher and Subscriber.
// Every subscriber receives every event published after it subscribed.
// Sends never block: when a subscriber's buffer is full the event is dropped
// for that subscriber, which is harmless because events are only triggers and
// a pending one is already queued.
type Hub struct {
	subs   map[chan Event]struct{}
	buffer int
	mu     sync.RWMutex
	closed bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBufferSize sets the per-subscriber channel buffer. Default: 16.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber. The channel is closed when ctx is done
// or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	ch := make(chan Event, h.buffer)
	h.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		h.remove(ch)
	}()

	return ch, nil
}

// Publish delivers ev to all current subscribers.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes all subscriber channels. Close is idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	return nil
}

func (h *Hub) remove(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

var (
	_ Subscriber = (*Hub)(nil)
	_ Publisher  = (*Hub)(nil)
)
