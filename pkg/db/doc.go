// Package db connects to PostgreSQL and installs the localization schema.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] for pooling and applies the
// embedded migrations with [github.com/pressly/goose/v3]. The schema holds two
// tables:
//
//	website_content(page, section, language, content jsonb, updated_at)
//	site_locales(lang, content jsonb, updated_at)
//
// Both tables carry triggers that call pg_notify on every insert, update and
// delete, so a notify.PGListener sees every change regardless of who wrote it.
//
// # Configuration
//
// Settings are read from the environment by the caller (caarlos0/env):
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required)
//	DATABASE_APPLICATION_NAME   - application_name reported to Postgres (default: localesync)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - Migrations table name (default: localesync_migrations)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Every listener holds one pool connection while subscribed, so MaxOpenConns
// must leave room for them.
package db
