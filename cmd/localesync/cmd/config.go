package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/localesync"
	"github.com/dmitrymomot/localesync/pkg/db"
	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/notify"
	"github.com/dmitrymomot/localesync/pkg/pagecontent"
	"github.com/dmitrymomot/localesync/pkg/publish"
	"github.com/dmitrymomot/localesync/pkg/redis"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// Notification backends.
const (
	notifyPostgres = "postgres"
	notifyRedis    = "redis"
)

var errRedisRequired = errors.New("REDIS_URL is required for redis notifications and caches")

// Config is the process configuration.
type Config struct {
	DB      db.Config
	Redis   redis.Config
	Log     logger.Config
	Sentry  logger.SentryConfig
	Publish publish.Config

	Languages        []string `env:"LOCALESYNC_LANGUAGES" envDefault:"en,sl" envSeparator:","`
	DefaultLanguage  string   `env:"LOCALESYNC_DEFAULT_LANGUAGE" envDefault:"en"`
	FallbackLanguage string   `env:"LOCALESYNC_FALLBACK_LANGUAGE" envDefault:"en"`
	DefaultsDir      string   `env:"LOCALESYNC_DEFAULTS_DIR"`
	Notify           string   `env:"LOCALESYNC_NOTIFY" envDefault:"postgres"`
	RebuildSchedule  string   `env:"LOCALESYNC_REBUILD_SCHEDULE"`
	PageCache        string   `env:"LOCALESYNC_PAGE_CACHE" envDefault:"memory"`
	AutoRebuild      bool     `env:"LOCALESYNC_AUTO_REBUILD" envDefault:"true"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	AllowedOrigins  []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func loadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.Notify {
	case notifyPostgres, notifyRedis:
	default:
		return Config{}, fmt.Errorf("LOCALESYNC_NOTIFY: unknown backend %q", cfg.Notify)
	}
	return cfg, nil
}

// runtime holds the connections shared by commands.
type runtime struct {
	cfg      Config
	log      *slog.Logger
	pool     *pgxpool.Pool
	redis    goredis.UniversalClient
	store    *store.Postgres
	defaults locale.Defaults
}

func newRuntime(ctx context.Context, withRedis bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg: cfg,
		log: logger.NewWithSentry(cfg.Log, cfg.Sentry, logger.RequestIDExtractor(), logger.LanguageExtractor()),
	}

	rt.defaults, err = loadDefaults(cfg.DefaultsDir)
	if err != nil {
		return nil, err
	}

	rt.pool, err = db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt.store = store.NewPostgres(rt.pool)

	needRedis := cfg.Notify == notifyRedis || cfg.PageCache == notifyRedis
	if withRedis && (needRedis || cfg.Redis.URL != "") {
		if cfg.Redis.URL == "" {
			rt.close(ctx)
			return nil, errRedisRequired
		}
		rt.redis, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}
	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if rt.redis != nil {
		if err := redis.Shutdown(rt.redis)(ctx); err != nil {
			rt.log.WarnContext(ctx, "redis shutdown failed", slog.Any("error", err))
		}
	}
	if rt.pool != nil {
		_ = db.Shutdown(rt.pool)(ctx)
	}
	logger.FlushSentry(2 * time.Second)
}

func (rt *runtime) subscriber() notify.Subscriber {
	if rt.cfg.Notify == notifyRedis && rt.redis != nil {
		return notify.NewRedis(rt.redis, notify.WithRedisLogger(rt.log))
	}
	return notify.NewPGListener(rt.pool, notify.WithPGLogger(rt.log))
}

func (rt *runtime) publisher() (publish.Publisher, error) {
	if !rt.cfg.Publish.Enabled() {
		return nil, nil
	}
	return publish.NewS3(rt.cfg.Publish)
}

// engine builds the engine over the Postgres store.
func (rt *runtime) engine(live bool) (*localesync.Engine, error) {
	opts := []localesync.Option{
		localesync.WithLanguages(rt.cfg.Languages...),
		localesync.WithDefaultLanguage(rt.cfg.DefaultLanguage),
		localesync.WithFallbackLanguage(rt.cfg.FallbackLanguage),
		localesync.WithDefaults(rt.defaults),
		localesync.WithStore(rt.store),
		localesync.WithLogger(rt.log),
	}
	pub, err := rt.publisher()
	if err != nil {
		return nil, fmt.Errorf("bundle publisher: %w", err)
	}
	if pub != nil {
		opts = append(opts, localesync.WithPublisher(pub))
	}
	if rt.redis != nil {
		opts = append(opts, localesync.WithPreferences(locale.NewRedisPreferences(rt.redis), locale.DefaultScope))
		if rt.cfg.PageCache == notifyRedis {
			opts = append(opts, localesync.WithPageCache(pagecontent.NewRedisCache(rt.redis)))
		}
	}
	if live {
		opts = append(opts,
			localesync.WithSubscriber(rt.subscriber()),
			localesync.WithAutoRebuild(rt.cfg.AutoRebuild),
		)
	}
	return localesync.New(opts...)
}

// loadDefaults reads {lang}.json and {lang}.yaml files from dir.
// An empty dir yields no defaults.
func loadDefaults(dir string) (locale.Defaults, error) {
	if dir == "" {
		return locale.Defaults{}, nil
	}
	fsys := os.DirFS(dir)
	out, err := locale.LoadJSONDefaults(fsys)
	if err != nil {
		return nil, err
	}
	fromYAML, err := locale.LoadYAMLDefaults(fsys)
	if err != nil {
		return nil, err
	}
	for lang := range fromYAML {
		if _, dup := out[lang]; dup {
			return nil, fmt.Errorf("%w: %q has both JSON and YAML defaults", locale.ErrInvalidDefaults, lang)
		}
	}
	maps.Copy(out, fromYAML)
	return out, nil
}
