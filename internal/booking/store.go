// Package booking handles booking requests: public creation from quote
// inputs and admin review (accept/reject) with domain events.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Booking statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ErrNotFound indicates the booking does not exist.
var ErrNotFound = errors.New("booking not found")

// ErrStaleStatus indicates a status transition raced with another update.
var ErrStaleStatus = errors.New("booking status changed concurrently")

// Booking is one customer booking request. The breakdown is the quote
// result stored verbatim at creation time; later config changes never
// reprice an existing booking.
type Booking struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	ServiceID     string          `json:"service_id"`
	ServiceName   string          `json:"service_name"`
	Status        string          `json:"status"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Address       string          `json:"address"`
	PostalCode    string          `json:"postal_code"`
	PreferredDate *time.Time      `json:"preferred_date,omitempty"`
	FrequencyKey  string          `json:"frequency_key"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	Currency      string          `json:"currency"`
	TotalMinor    int64           `json:"total_minor"`
	Breakdown     json.RawMessage `json:"breakdown"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Repository provides PostgreSQL backed persistence for bookings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `id, tenant_id, service_id, service_name, status, customer_name, customer_email,
	COALESCE(customer_phone, ''), COALESCE(address, ''), COALESCE(postal_code, ''), preferred_date,
	frequency_key, COALESCE(coupon_code, ''), currency, total_minor, breakdown, created_at, updated_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.TenantID, &b.ServiceID, &b.ServiceName, &b.Status,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Address, &b.PostalCode,
		&b.PreferredDate, &b.FrequencyKey, &b.CouponCode, &b.Currency, &b.TotalMinor,
		&b.Breakdown, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	return b, nil
}

// Create inserts a booking in pending state.
func (r *Repository) Create(ctx context.Context, b Booking) (Booking, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			tenant_id, service_id, service_name, status, customer_name, customer_email,
			customer_phone, address, postal_code, preferred_date, frequency_key,
			coupon_code, currency, total_minor, breakdown
		)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11, NULLIF($12, ''), $13, $14, $15)
		RETURNING `+bookingColumns,
		b.TenantID, b.ServiceID, b.ServiceName, b.Status, b.CustomerName, b.CustomerEmail,
		b.CustomerPhone, b.Address, b.PostalCode, b.PreferredDate, b.FrequencyKey,
		b.CouponCode, b.Currency, b.TotalMinor, b.Breakdown,
	)
	return scanBooking(row)
}

// GetByID fetches one booking within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	return scanBooking(row)
}

// List returns a page of bookings, newest first, optionally filtered by
// status. It also reports the unpaged total for pagination metadata.
func (r *Repository) List(ctx context.Context, tenantID, status string, limit, offset int) ([]Booking, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM bookings WHERE tenant_id = $1 AND ($2 = '' OR status = $2)`,
		tenantID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		tenantID, status, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// UpdateStatus transitions a booking from one status to another. The guard
// on the current status keeps two admins from racing each other.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id, from, to string) (Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $3
		RETURNING `+bookingColumns,
		tenantID, id, from, to,
	)
	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Booking{}, err
	}
	// Either the booking is gone or the guard did not match.
	if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
		return Booking{}, getErr
	}
	return Booking{}, ErrStaleStatus
}
