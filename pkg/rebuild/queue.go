package rebuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/localesync/pkg/logger"
)

const (
	// JobKind identifies rebuild jobs in the river_job table.
	JobKind = "localesync:rebuild"

	defaultMaxWorkers = 2
)

// RebuildArgs are the arguments of a rebuild job. An empty Language
// rebuilds every configured language.
type RebuildArgs struct {
	Language string `json:"language,omitempty"`
}

func (RebuildArgs) Kind() string { return JobKind }

// Queue runs rebuilds as River jobs backed by Postgres.
type Queue struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	log    *slog.Logger

	mu      sync.Mutex
	started bool
}

// QueueOption configures a Queue.
type QueueOption func(*queueConfig)

type queueConfig struct {
	log        *slog.Logger
	schedule   string
	maxWorkers int
}

// WithQueueLogger sets the logger for the queue and the River client.
func WithQueueLogger(l *slog.Logger) QueueOption {
	return func(c *queueConfig) { c.log = l }
}

// WithSchedule enqueues a full rebuild on a five-field cron schedule.
func WithSchedule(expr string) QueueOption {
	return func(c *queueConfig) { c.schedule = expr }
}

// WithMaxWorkers limits concurrent rebuild jobs.
func WithMaxWorkers(n int) QueueOption {
	return func(c *queueConfig) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// NewQueue creates the River client. Jobs may be enqueued before Start.
func NewQueue(pool *pgxpool.Pool, r *Rebuilder, opts ...QueueOption) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	cfg := &queueConfig{maxWorkers: defaultMaxWorkers}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.log = logger.OrNope(cfg.log)

	var periodic []*river.PeriodicJob
	if cfg.schedule != "" {
		sched, err := parseCronSchedule(cfg.schedule)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, cfg.schedule, err)
		}
		periodic = append(periodic, river.NewPeriodicJob(
			sched,
			func() (river.JobArgs, *river.InsertOpts) { return RebuildArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &rebuildWorker{rebuilder: r, log: cfg.log})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: cfg.maxWorkers}},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.log,
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild: create river client: %w", err)
	}

	return &Queue{pool: pool, client: client, log: cfg.log}, nil
}

// Start begins working jobs.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrAlreadyStarted
	}
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("rebuild: start queue: %w", err)
	}
	q.started = true
	q.log.Info("rebuild queue started")
	return nil
}

// Stop waits for running jobs to finish and stops the client.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return ErrNotStarted
	}
	if err := q.client.Stop(ctx); err != nil {
		return fmt.Errorf("rebuild: stop queue: %w", err)
	}
	q.started = false
	q.log.Info("rebuild queue stopped")
	return nil
}

// Enqueue schedules a rebuild of language, or of every language when empty.
func (q *Queue) Enqueue(ctx context.Context, language string) error {
	if _, err := q.client.Insert(ctx, RebuildArgs{Language: language}, nil); err != nil {
		return fmt.Errorf("rebuild: enqueue: %w", err)
	}
	return nil
}

// EnqueueTx schedules a rebuild that becomes visible when tx commits.
func (q *Queue) EnqueueTx(ctx context.Context, tx pgx.Tx, language string) error {
	if _, err := q.client.InsertTx(ctx, tx, RebuildArgs{Language: language}, nil); err != nil {
		return fmt.Errorf("rebuild: enqueue tx: %w", err)
	}
	return nil
}

// Healthcheck reports whether the queue is running and its database reachable.
func (q *Queue) Healthcheck(ctx context.Context) error {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if !started {
		return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
	}
	if err := q.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// MigrateRiver applies River's own schema migrations.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	if pool == nil {
		return ErrPoolRequired
	}
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: logger.OrNope(log)})
	if err != nil {
		return fmt.Errorf("rebuild: river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("rebuild: river migrate: %w", err)
	}
	logger.OrNope(log).InfoContext(ctx, "river migrations applied", slog.Int("versions", len(res.Versions)))
	return nil
}

type rebuildWorker struct {
	river.WorkerDefaults[RebuildArgs]
	rebuilder *Rebuilder
	log       *slog.Logger
}

func (w *rebuildWorker) Work(ctx context.Context, job *river.Job[RebuildArgs]) error {
	w.log.DebugContext(ctx, "running rebuild job",
		slog.String("language", job.Args.Language),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	if job.Args.Language == "" {
		return w.rebuilder.RebuildAll(ctx).Err()
	}
	_, err := w.rebuilder.Rebuild(ctx, job.Args.Language)
	if errors.Is(err, ErrUnknownLanguage) {
		return river.JobCancel(err)
	}
	return err
}

// Timeout bounds a single rebuild job.
func (w *rebuildWorker) Timeout(*river.Job[RebuildArgs]) time.Duration {
	return 2 * time.Minute
}

type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return cronScheduleAdapter{schedule: schedule}, nil
}
