package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists audit entries in the message_audit table.
type PostgresStore struct {
	pool rowQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("audit: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

// NewPostgresStoreWithQuerier allows injecting mocks for tests.
func NewPostgresStoreWithQuerier(q rowQuerier) *PostgresStore {
	return &PostgresStore{pool: q}
}

// AlreadySent checks whether the entry exists.
func (s *PostgresStore) AlreadySent(ctx context.Context, subject, kind string) (bool, error) {
	query := `SELECT 1 FROM message_audit WHERE subject = $1 AND message_type = $2`
	var one int
	if err := s.pool.QueryRow(ctx, query, subject, kind).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("audit: check sent: %w", err)
	}
	return true, nil
}

// MarkSent inserts the entry, returning false if it already existed.
func (s *PostgresStore) MarkSent(ctx context.Context, subject, kind string) (bool, error) {
	query := `
		INSERT INTO message_audit (subject, message_type)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, query, subject, kind)
	if err != nil {
		return false, fmt.Errorf("audit: mark sent: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
