package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/localesync/pkg/logger"
)

// PGListener subscribes to PostgreSQL NOTIFY messages on a channel.
// Each subscription holds one pool connection for its lifetime and
// reconnects with linear backoff when the connection drops.
type PGListener struct {
	pool          *pgxpool.Pool
	logger        *slog.Logger
	channel       string
	retryInterval time.Duration
	maxRetry      time.Duration
	buffer        int
}

// PGOption configures a PGListener.
type PGOption func(*PGListener)

// WithPGChannel sets the LISTEN channel. Default: DefaultChannel.
func WithPGChannel(name string) PGOption {
	return func(l *PGListener) {
		l.channel = name
	}
}

// WithPGLogger sets the logger for connection errors.
func WithPGLogger(log *slog.Logger) PGOption {
	return func(l *PGListener) {
		l.logger = logger.OrNope(log)
	}
}

// WithPGRetry sets the base reconnect interval and its upper bound.
// Default: 1s, capped at 30s.
func WithPGRetry(interval, limit time.Duration) PGOption {
	return func(l *PGListener) {
		if interval > 0 {
			l.retryInterval = interval
		}
		if limit > 0 {
			l.maxRetry = limit
		}
	}
}

// NewPGListener creates a listener over the given pool.
func NewPGListener(pool *pgxpool.Pool, opts ...PGOption) *PGListener {
	l := &PGListener{
		pool:          pool,
		logger:        logger.NewNope(),
		channel:       DefaultChannel,
		retryInterval: time.Second,
		maxRetry:      30 * time.Second,
		buffer:        defaultBufferSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe starts listening. The first LISTEN is performed synchronously so
// configuration errors surface to the caller; later failures are retried in
// the background until ctx is done.
func (l *PGListener) Subscribe(ctx context.Context) (<-chan Event, error) {
	if l.channel == "" {
		return nil, ErrInvalidChannel
	}

	conn, err := l.listen(ctx)
	if err != nil {
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	out := make(chan Event, l.buffer)
	go l.loop(ctx, conn, out)

	return out, nil
}

func (l *PGListener) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, err
	}
	return conn, nil
}

func (l *PGListener) loop(ctx context.Context, conn *pgxpool.Conn, out chan<- Event) {
	defer close(out)

	attempt := 0
	for {
		if conn == nil {
			attempt++
			delay := min(time.Duration(attempt)*l.retryInterval, l.maxRetry)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			var err error
			conn, err = l.listen(ctx)
			if err != nil {
				l.logger.WarnContext(ctx, "notify: relisten failed",
					slog.String("channel", l.channel),
					slog.Int("attempt", attempt),
					slog.Any("error", err),
				)
				conn = nil
				continue
			}
			attempt = 0

			// Changes may have been missed while disconnected.
			l.emit(ctx, out, NewEvent("", OpUnknown, nil))
		}

		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// Drop the connection from the pool; its LISTEN state is gone.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
			conn = nil

			if ctx.Err() != nil {
				return
			}
			l.logger.WarnContext(ctx, "notify: connection lost",
				slog.String("channel", l.channel),
				slog.Any("error", err),
			)
			continue
		}

		ev, err := DecodeEvent([]byte(n.Payload))
		if err != nil {
			l.logger.WarnContext(ctx, "notify: malformed payload",
				slog.String("channel", l.channel),
				slog.Any("error", err),
			)
		}
		l.emit(ctx, out, ev)
	}
}

func (l *PGListener) emit(ctx context.Context, out chan<- Event, ev Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	default:
	}
}

var _ Subscriber = (*PGListener)(nil)
