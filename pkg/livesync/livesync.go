// Package livesync turns change notifications into translation refreshes.
//
// A Listener subscribes to a notify.Subscriber and, for every relevant event,
// runs its refresh function. Events are only triggers; their payload is
// never applied. At most one refresh runs at a time and an event arriving
// while a refresh is in flight schedules exactly one follow-up, so a burst
// of edits costs at most two fetches.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/notify"
)

var (
	ErrSubscriptionClosed = errors.New("livesync: subscription closed")
	ErrAlreadyRunning     = errors.New("livesync: listener already running")
	ErrSubscribeFailed    = errors.New("livesync: subscribe failed")
)

// State is the listener state.
type State int32

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// RefreshFunc re-fetches authoritative state.
type RefreshFunc func(ctx context.Context) error

// Listener runs refreshes in response to change events.
type Listener struct {
	sub       notify.Subscriber
	refresh   RefreshFunc
	log       *slog.Logger
	onRefresh func(error)
	name      string
	tables    []string

	state   atomic.Int32
	running atomic.Bool
	pending chan struct{}
}

// Option configures a Listener.
type Option func(*Listener)

// WithTables limits the listener to events of the given tables. Events
// without a table (reconnects, undecodable payloads) always pass.
func WithTables(tables ...string) Option {
	return func(l *Listener) { l.tables = slices.Clone(tables) }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Listener) { l.log = logger.OrNope(log) }
}

// WithName labels log records of this listener.
func WithName(name string) Option {
	return func(l *Listener) { l.name = name }
}

// WithOnRefresh is called after every refresh with its result.
func WithOnRefresh(fn func(error)) Option {
	return func(l *Listener) { l.onRefresh = fn }
}

// New creates a listener. Call Run to start it.
func New(sub notify.Subscriber, refresh RefreshFunc, opts ...Option) *Listener {
	l := &Listener{
		sub:     sub,
		refresh: refresh,
		log:     logger.NewNope(),
		name:    "livesync",
		pending: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With(slog.String("listener", l.name))
	return l
}

// State returns the current state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Trigger schedules a refresh. Calls made while one is already pending are
// collapsed into it.
func (l *Listener) Trigger() {
	select {
	case l.pending <- struct{}{}:
	default:
	}
}

// Run subscribes and processes events until ctx is done, in which case it
// returns nil, or until the subscription ends.
func (l *Listener) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	events, err := l.sub.Subscribe(ctx)
	if err != nil {
		return errors.Join(ErrSubscribeFailed, err)
	}

	workCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() { l.work(workCtx) })
	defer func() {
		stop()
		wg.Wait()
	}()

	l.log.InfoContext(ctx, "listening for changes", slog.Any("tables", l.tables))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				l.log.WarnContext(ctx, "change subscription closed")
				return ErrSubscriptionClosed
			}
			if !l.accepts(ev) {
				continue
			}
			l.log.DebugContext(ctx, "change received",
				slog.String("table", ev.Table),
				slog.String("operation", ev.Operation),
			)
			l.Trigger()
		}
	}
}

func (l *Listener) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.pending:
		}

		l.state.Store(int32(Refreshing))
		err := l.refresh(ctx)
		l.state.Store(int32(Idle))

		if err != nil && ctx.Err() == nil {
			l.log.ErrorContext(ctx, "refresh failed", slog.Any("error", err))
		}
		if l.onRefresh != nil {
			l.onRefresh(err)
		}
	}
}

func (l *Listener) accepts(ev notify.Event) bool {
	return len(l.tables) == 0 || ev.Table == "" || slices.Contains(l.tables, ev.Table)
}
