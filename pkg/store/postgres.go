package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/localesync/pkg/db"
)

const (
	selectRowsSQL = `
SELECT page, section, language, content, updated_at
FROM website_content
WHERE $1 = '' OR language = $1
ORDER BY language, page, section`

	upsertRowSQL = `
INSERT INTO website_content (page, section, language, content, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (page, section, language) DO UPDATE
SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
WHERE website_content.content IS DISTINCT FROM EXCLUDED.content`

	deleteRowSQL = `
DELETE FROM website_content
WHERE page = $1 AND section = $2 AND language = $3`

	selectAllBundlesSQL = `
SELECT lang, content, updated_at
FROM site_locales
ORDER BY lang`

	selectBundlesSQL = `
SELECT lang, content, updated_at
FROM site_locales
WHERE lang = ANY($1)
ORDER BY lang`

	upsertBundleSQL = `
INSERT INTO site_locales (lang, content, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (lang) DO UPDATE
SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`
)

// Postgres is a ContentStore and BundleStore backed by PostgreSQL.
// The schema is installed by db.Migrate.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store over an existing pool.
// The pool lifecycle is managed by the caller (see db.Shutdown).
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Rows implements ContentStore.
func (p *Postgres) Rows(ctx context.Context, language string) ([]Row, error) {
	rows, err := p.pool.Query(ctx, selectRowsSQL, language)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			content []byte
		)
		if err := rows.Scan(&r.Page, &r.Section, &r.Language, &content, &r.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		r.Content = content
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Upsert implements ContentStore. Writing identical content is a no-op.
func (p *Postgres) Upsert(ctx context.Context, row Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, upsertRowSQL, row.Page, row.Section, row.Language, []byte(row.Content)); err != nil {
		return classify(err)
	}
	return nil
}

// Import implements ContentStore using a single transaction.
func (p *Postgres) Import(ctx context.Context, rows []Row) error {
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}

	err := db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(upsertRowSQL, r.Page, r.Section, r.Language, []byte(r.Content))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Delete implements ContentStore.
func (p *Postgres) Delete(ctx context.Context, page, section, language string) error {
	if _, err := p.pool.Exec(ctx, deleteRowSQL, page, section, language); err != nil {
		return classify(err)
	}
	return nil
}

// Bundles implements BundleStore.
func (p *Postgres) Bundles(ctx context.Context, languages ...string) ([]Bundle, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(languages) == 0 {
		rows, err = p.pool.Query(ctx, selectAllBundlesSQL)
	} else {
		rows, err = p.pool.Query(ctx, selectBundlesSQL, languages)
	}
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Bundle
	for rows.Next() {
		var (
			b   Bundle
			doc []byte
		)
		if err := rows.Scan(&b.Language, &doc, &b.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		b.Document = doc
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// PutBundle implements BundleStore.
func (p *Postgres) PutBundle(ctx context.Context, b Bundle) error {
	if b.Language == "" {
		return ErrInvalidKey
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}
	if _, err := p.pool.Exec(ctx, upsertBundleSQL, b.Language, []byte(b.Document), b.UpdatedAt); err != nil {
		return classify(err)
	}
	return nil
}

// Healthcheck returns a closure suitable for health.Checks.
func (p *Postgres) Healthcheck() func(context.Context) error {
	return db.Healthcheck(p.pool)
}

// classify separates server-side rejections from transport failures.
// Anything that is not a PostgreSQL error response means the store could not
// be reached or the connection broke mid-query.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errors.Join(ErrQueryFailed, err)
	}
	return errors.Join(ErrStoreUnavailable, err)
}

var (
	_ ContentStore = (*Postgres)(nil)
	_ BundleStore  = (*Postgres)(nil)
)
