package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in Postgres.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithQuerier allows injecting mocks for tests.
func NewPostgresRepositoryWithQuerier(q Querier) *PostgresRepository {
	return &PostgresRepository{pool: q}
}

const bookingColumns = `
	id, customer_phone, customer_name, provider_id, provider_phone,
	service_type, address, scheduled_at, status, provider_responded,
	response_deadline, created_at, updated_at`

// Create inserts a new PENDING row.
func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	query := `
		INSERT INTO bookings (
			id, customer_phone, customer_name, provider_id, provider_phone,
			service_type, address, scheduled_at, status, provider_responded,
			response_deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		b.ID,
		b.CustomerPhone,
		b.CustomerName,
		b.ProviderID,
		b.ProviderPhone,
		b.ServiceType,
		b.Address,
		b.ScheduledAt,
		string(b.Status),
		b.ProviderResponded,
		b.ResponseDeadline,
	).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("booking: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one booking.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking: select by id: %w", err)
	}
	return b, nil
}

// PendingByProviderPhone returns PENDING rows for the phone inside the
// window, newest first. Served by the (provider_phone, created_at) index.
func (r *PostgresRepository) PendingByProviderPhone(ctx context.Context, phone string, createdAfter time.Time) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE provider_phone = $1 AND status = 'pending' AND created_at >= $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, phone, createdAfter)
	if err != nil {
		return nil, fmt.Errorf("booking: pending by provider phone: %w", err)
	}
	return collectBookings(rows)
}

// MarkProviderResponded burns the accept/decline slot.
func (r *PostgresRepository) MarkProviderResponded(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bookings SET provider_responded = TRUE, updated_at = now() WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("booking: mark provider responded: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// UpdateStatus is a conditional single-row update; the status precondition in
// the WHERE clause is what makes retried deliveries and duplicate sweeps safe.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	query := `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	ct, err := r.pool.Exec(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("booking: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

// HasCustomerHistory reports whether any booking exists for the phone.
func (r *PostgresRepository) HasCustomerHistory(ctx context.Context, customerPhone string) (bool, error) {
	query := `SELECT 1 FROM bookings WHERE customer_phone = $1 LIMIT 1`
	var one int
	if err := r.pool.QueryRow(ctx, query, customerPhone).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("booking: customer history: %w", err)
	}
	return true, nil
}

// LatestConfirmedByCustomer returns the newest CONFIRMED booking in the window.
func (r *PostgresRepository) LatestConfirmedByCustomer(ctx context.Context, customerPhone string, createdAfter time.Time) (*Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE customer_phone = $1 AND status = 'confirmed' AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, customerPhone, createdAfter))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking: latest confirmed: %w", err)
	}
	return b, nil
}

// ListExpirable returns PENDING rows past the deadline inside the lookback.
func (r *PostgresRepository) ListExpirable(ctx context.Context, now, createdAfter time.Time) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND response_deadline <= $1 AND created_at >= $2
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, now, createdAfter)
	if err != nil {
		return nil, fmt.Errorf("booking: list expirable: %w", err)
	}
	return collectBookings(rows)
}

// ListConfirmedScheduledBefore returns CONFIRMED rows whose start time passed.
func (r *PostgresRepository) ListConfirmedScheduledBefore(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
	`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("booking: list confirmed: %w", err)
	}
	return collectBookings(rows)
}

// ListAll returns every booking, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("booking: list all: %w", err)
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("booking: scan row: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate rows: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var status string
	if err := row.Scan(
		&b.ID,
		&b.CustomerPhone,
		&b.CustomerName,
		&b.ProviderID,
		&b.ProviderPhone,
		&b.ServiceType,
		&b.Address,
		&b.ScheduledAt,
		&status,
		&b.ProviderResponded,
		&b.ResponseDeadline,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	b.Status = parsed
	return &b, nil
}
