package livesync_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/livesync"
	"github.com/dmitrymomot/localesync/pkg/notify"
)

func startListener(t *testing.T, hub *notify.Hub, l *livesync.Listener) <-chan error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	return done
}

func publish(t *testing.T, hub *notify.Hub, table string) {
	t.Helper()
	require.NoError(t, hub.Publish(context.Background(), notify.NewEvent(table, notify.OpUpdate, nil)))
}

func TestListener_RefreshOnEvent(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub()
	var calls atomic.Int32
	l := livesync.New(hub, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	startListener(t, hub, l)

	publish(t, hub, notify.TableContent)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return l.State() == livesync.Idle }, time.Second, 5*time.Millisecond)
}

func TestListener_Coalesces(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub(notify.WithBufferSize(64))
	var (
		calls    atomic.Int32
		inFlight atomic.Int32
		maxSeen  atomic.Int32
	)
	release := make(chan struct{})
	l := livesync.New(hub, func(ctx context.Context) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		if calls.Add(1) == 1 {
			select {
			case <-release:
			case <-ctx.Done():
			}
		}
		return nil
	})
	startListener(t, hub, l)

	publish(t, hub, notify.TableContent)
	require.Eventually(t, func() bool { return l.State() == livesync.Refreshing }, time.Second, 5*time.Millisecond)

	for range 20 {
		publish(t, hub, notify.TableContent)
	}
	// let the listener drain the burst into the pending slot
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestListener_TableFilter(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub()
	refreshed := make(chan struct{}, 8)
	l := livesync.New(hub, func(context.Context) error {
		refreshed <- struct{}{}
		return nil
	}, livesync.WithTables(notify.TableContent))
	startListener(t, hub, l)

	publish(t, hub, notify.TableBundles)
	select {
	case <-refreshed:
		t.Fatal("bundle events must be ignored")
	case <-time.After(50 * time.Millisecond):
	}

	// events without a table are always accepted
	publish(t, hub, "")
	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("expected refresh for untyped event")
	}
}

func TestListener_FailedRefreshKeepsRunning(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub()
	results := make(chan error, 4)
	var calls atomic.Int32
	l := livesync.New(hub, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("store unavailable")
		}
		return nil
	}, livesync.WithOnRefresh(func(err error) { results <- err }))
	startListener(t, hub, l)

	publish(t, hub, notify.TableContent)
	require.Error(t, <-results)

	publish(t, hub, notify.TableContent)
	require.NoError(t, <-results)
}

func TestListener_Trigger(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub()
	results := make(chan error, 4)
	l := livesync.New(hub, func(context.Context) error { return nil }, livesync.WithOnRefresh(func(err error) { results <- err }))

	// a trigger before Run is processed once the listener starts
	l.Trigger()
	startListener(t, hub, l)

	select {
	case err := <-results:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("trigger was not processed")
	}
}

func TestListener_SubscriptionClosed(t *testing.T) {
	t.Parallel()

	events := make(chan notify.Event)
	sub := notify.SubscriberFunc(func(context.Context) (<-chan notify.Event, error) { return events, nil })
	l := livesync.New(sub, func(context.Context) error { return nil })

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	close(events)

	select {
	case err := <-done:
		require.ErrorIs(t, err, livesync.ErrSubscriptionClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestListener_RunErrors(t *testing.T) {
	t.Parallel()

	failing := notify.SubscriberFunc(func(context.Context) (<-chan notify.Event, error) {
		return nil, notify.ErrSubscribeFailed
	})
	err := livesync.New(failing, func(context.Context) error { return nil }).Run(context.Background())
	require.ErrorIs(t, err, livesync.ErrSubscribeFailed)
	require.ErrorIs(t, err, notify.ErrSubscribeFailed)

	hub := notify.NewHub()
	l := livesync.New(hub, func(context.Context) error { return nil })
	startListener(t, hub, l)
	require.ErrorIs(t, l.Run(context.Background()), livesync.ErrAlreadyRunning)
}

func TestListener_StopsOnCancel(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub()
	l := livesync.New(hub, func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", livesync.Idle.String())
	assert.Equal(t, "refreshing", livesync.Refreshing.String())
}
