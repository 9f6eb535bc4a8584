package rebuild

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/store"
)

func TestParseCronSchedule(t *testing.T) {
	t.Parallel()

	sched, err := parseCronSchedule("*/15 * * * *")
	require.NoError(t, err)

	from := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC), sched.Next(from))

	_, err = parseCronSchedule("@hourly")
	require.NoError(t, err)

	_, err = parseCronSchedule("every five minutes")
	require.Error(t, err)
}

func TestNewQueue_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewQueue(nil, New(store.NewMemory(), store.NewMemory()))
	require.ErrorIs(t, err, ErrPoolRequired)

	pool, err := pgxpool.New(context.Background(), "postgres://localhost:5432/localesync?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = NewQueue(pool, New(store.NewMemory(), store.NewMemory()), WithSchedule("not a cron"))
	require.ErrorIs(t, err, ErrInvalidSchedule)

	q, err := NewQueue(pool, New(store.NewMemory(), store.NewMemory()), WithSchedule("0 3 * * *"), WithMaxWorkers(1))
	require.NoError(t, err)
	require.ErrorIs(t, q.Healthcheck(context.Background()), ErrHealthcheckFailed)
	require.ErrorIs(t, q.Stop(context.Background()), ErrNotStarted)
}

func TestRebuildWorker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	row, err := store.NewRow("home", "title", "en", "Hello")
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, row))

	w := &rebuildWorker{
		rebuilder: New(mem, mem, WithLanguages("en", "sl")),
		log:       logger.NewNope(),
	}
	job := func(lang string) *river.Job[RebuildArgs] {
		return &river.Job[RebuildArgs]{JobRow: &rivertype.JobRow{ID: 1, Attempt: 1}, Args: RebuildArgs{Language: lang}}
	}

	require.NoError(t, w.Work(ctx, job("en")))
	require.NoError(t, w.Work(ctx, job("")))

	bundles, err := mem.Bundles(ctx)
	require.NoError(t, err)
	assert.Len(t, bundles, 2)

	err = w.Work(ctx, job("de"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestRebuildArgs_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localesync:rebuild", RebuildArgs{}.Kind())
}
