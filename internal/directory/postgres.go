package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresDirectory reads providers from the providers table.
type PostgresDirectory struct {
	pool rowQuerier
}

// NewPostgresDirectory initializes a directory backed by pgxpool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresDirectory{pool: pool}
}

// NewPostgresDirectoryWithQuerier allows injecting mocks for tests.
func NewPostgresDirectoryWithQuerier(q rowQuerier) *PostgresDirectory {
	return &PostgresDirectory{pool: q}
}

// GetByID returns the provider with the given id.
func (d *PostgresDirectory) GetByID(ctx context.Context, id string) (*Provider, error) {
	query := `SELECT id, name, phone FROM providers WHERE id = $1`
	return d.scan(d.pool.QueryRow(ctx, query, id))
}

// GetByPhone returns the provider with the given normalized phone.
func (d *PostgresDirectory) GetByPhone(ctx context.Context, phone string) (*Provider, error) {
	query := `SELECT id, name, phone FROM providers WHERE phone = $1`
	return d.scan(d.pool.QueryRow(ctx, query, phone))
}

// All returns every provider, sorted by id.
func (d *PostgresDirectory) All(ctx context.Context) ([]Provider, error) {
	query := `SELECT id, name, phone FROM providers ORDER BY id`
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory: select providers: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone); err != nil {
			return nil, fmt.Errorf("directory: scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: iterate providers: %w", err)
	}
	return out, nil
}

func (d *PostgresDirectory) scan(row pgx.Row) (*Provider, error) {
	var p Provider
	if err := row.Scan(&p.ID, &p.Name, &p.Phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("directory: select provider: %w", err)
	}
	return &p, nil
}
