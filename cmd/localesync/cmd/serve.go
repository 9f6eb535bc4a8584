package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/localesync/internal/httpapi"
	"github.com/dmitrymomot/localesync/pkg/db"
	"github.com/dmitrymomot/localesync/pkg/notify"
	"github.com/dmitrymomot/localesync/pkg/rebuild"
	"github.com/dmitrymomot/localesync/pkg/redis"
)

var serveRelay bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with live updates and background rebuilds",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveRelay, "relay", false,
		"forward database change notifications to Redis (with LOCALESYNC_NOTIFY=redis)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}

	e, err := rt.engine(true)
	if err != nil {
		rt.close(ctx)
		return err
	}

	queueOpts := []rebuild.QueueOption{rebuild.WithQueueLogger(rt.log)}
	if rt.cfg.RebuildSchedule != "" {
		queueOpts = append(queueOpts, rebuild.WithSchedule(rt.cfg.RebuildSchedule))
	}
	q, err := rebuild.NewQueue(rt.pool, e.Rebuilder(), queueOpts...)
	if err != nil {
		_ = e.Close()
		rt.close(ctx)
		return err
	}

	if err := e.Start(ctx); err != nil {
		_ = e.Close()
		rt.close(ctx)
		return err
	}
	if err := q.Start(ctx); err != nil {
		_ = e.Close()
		rt.close(ctx)
		return err
	}
	if serveRelay && rt.redis != nil {
		go relay(ctx, rt.log, notify.NewPGListener(rt.pool, notify.WithPGLogger(rt.log)), notify.NewRedis(rt.redis))
	}

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(rt.log),
		httpapi.WithQueue(q),
		httpapi.WithAllowedOrigins(rt.cfg.AllowedOrigins...),
		httpapi.WithReadinessCheck("database", db.Healthcheck(rt.pool)),
		httpapi.WithReadinessCheck("queue", q.Healthcheck),
	}
	if rt.redis != nil {
		apiOpts = append(apiOpts, httpapi.WithReadinessCheck("redis", redis.Healthcheck(rt.redis)))
	}

	return httpapi.Serve(ctx, httpapi.New(e, apiOpts...).Handler(),
		httpapi.Address(rt.cfg.HTTPAddr),
		httpapi.ServerLogger(rt.log),
		httpapi.ShutdownTimeout(rt.cfg.ShutdownTimeout),
		httpapi.ShutdownHook(q.Stop),
		httpapi.ShutdownHook(func(context.Context) error { return e.Close() }),
		httpapi.ShutdownHook(func(ctx context.Context) error {
			rt.close(ctx)
			return nil
		}),
	)
}

// relay forwards events from one channel to another until ctx is done.
func relay(ctx context.Context, log *slog.Logger, from notify.Subscriber, to notify.Publisher) {
	events, err := from.Subscribe(ctx)
	if err != nil {
		log.ErrorContext(ctx, "relay subscribe failed", slog.Any("error", err))
		return
	}
	for ev := range events {
		if err := to.Publish(ctx, ev); err != nil {
			log.WarnContext(ctx, "relay publish failed", slog.Any("error", err))
		}
	}
}
