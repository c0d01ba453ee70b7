package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cartkit/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// updateAttempts bounds the retry loop for read-modify-write conflicts before
// the failure is surfaced as ErrStoreUnavailable.
const updateAttempts = 3

// Postgres stores each document as a jsonb row keyed by (collection, id).
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	const q = `SELECT doc FROM documents WHERE collection = $1 AND id = $2`
	var doc Document
	if err := s.pool.QueryRow(ctx, q, collection, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get", err)
	}
	return doc, nil
}

func (s *Postgres) Set(ctx context.Context, collection, id string, doc Document) error {
	const q = `
INSERT INTO documents (collection, id, doc)
VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
`
	if _, err := s.pool.Exec(ctx, q, collection, id, doc); err != nil {
		return storeErr("set", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.pool.Exec(ctx, q, collection, id); err != nil {
		return storeErr("delete", err)
	}
	return nil
}

func (s *Postgres) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT doc FROM documents WHERE collection = $1`)
	args := []any{collection}
	for field, want := range q.FieldEquals {
		sb.WriteString(fmt.Sprintf(" AND doc->>$%d::text = $%d", len(args)+1, len(args)+2))
		args = append(args, field, want)
	}
	if q.OrderBy != "" {
		sb.WriteString(fmt.Sprintf(" ORDER BY doc->>$%d::text ASC", len(args)+1))
		args = append(args, q.OrderBy)
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)+1))
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)+1))
		args = append(args, q.Offset)
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeErr("query", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc); err != nil {
			return nil, storeErr("query scan", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query rows", err)
	}
	return docs, nil
}

func (s *Postgres) Count(ctx context.Context, collection string, fieldEquals map[string]string) (int, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT count(*) FROM documents WHERE collection = $1`)
	args := []any{collection}
	for field, want := range fieldEquals {
		sb.WriteString(fmt.Sprintf(" AND doc->>$%d::text = $%d", len(args)+1, len(args)+2))
		args = append(args, field, want)
	}
	var n int
	if err := s.pool.QueryRow(ctx, sb.String(), args...).Scan(&n); err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

// Update runs fn inside a transaction holding an advisory lock on the
// (collection, id) pair plus a row lock on the document, so concurrent
// read-modify-writes on the same id serialize instead of losing updates,
// including when the document does not exist yet. Conflicts are retried a
// bounded number of times.
func (s *Postgres) Update(ctx context.Context, collection, id string, fn UpdateFunc) (Document, error) {
	var lastErr error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		doc, err := s.updateOnce(ctx, collection, id, fn)
		if err == nil {
			return doc, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, storeErr("update retries exhausted", lastErr)
}

func (s *Postgres) updateOnce(ctx context.Context, collection, id string, fn UpdateFunc) (Document, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin", err)
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE alone cannot lock a row that does not exist yet, so two
	// transactions creating the same document would both read nil and the
	// second write would clobber the first. The advisory lock covers the
	// absent-row case as well.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		collection, id,
	); err != nil {
		return nil, storeErr("update lock", err)
	}

	var cur Document
	err = tx.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&cur)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeErr("update read", err)
	}

	next, err := fn(cur)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO documents (collection, id, doc)
VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
`, collection, id, next); err != nil {
		return nil, storeErr("update write", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit", err)
	}
	return next, nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
