package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the coupon does not exist.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a persisted discount code belonging to one tenant.
type Coupon struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Code          string     `json:"code"`
	Kind          string     `json:"kind"`
	PercentValue  float64    `json:"percent_value"`
	AmountMajor   float64    `json:"amount_major"`
	MinTotalMinor int64      `json:"min_total_minor"`
	UsageLimit    *int32     `json:"usage_limit,omitempty"`
	UsedCount     int32      `json:"used_count"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidTo       *time.Time `json:"valid_to,omitempty"`
	Active        bool       `json:"active"`
	ServiceIDs    []string   `json:"service_ids,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Rule converts the persisted coupon to engine form.
func (c Coupon) Rule() Rule {
	return Rule{
		Code:          c.Code,
		Kind:          c.Kind,
		PercentValue:  c.PercentValue,
		AmountMajor:   c.AmountMajor,
		MinTotalMinor: c.MinTotalMinor,
		UsageLimit:    c.UsageLimit,
		UsedCount:     c.UsedCount,
		ValidFrom:     c.ValidFrom,
		ValidTo:       c.ValidTo,
		Active:        c.Active,
		ServiceIDs:    c.ServiceIDs,
	}
}

// Repository provides PostgreSQL backed persistence for coupons.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const couponColumns = `id, tenant_id, code, kind, percent_value, amount_major, min_total_minor,
	usage_limit, used_count, valid_from, valid_to, active, COALESCE(service_ids, '{}'), created_at, updated_at`

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.TenantID, &c.Code, &c.Kind, &c.PercentValue, &c.AmountMajor, &c.MinTotalMinor,
		&c.UsageLimit, &c.UsedCount, &c.ValidFrom, &c.ValidTo, &c.Active, &c.ServiceIDs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, err
	}
	return c, nil
}

// Create inserts a new coupon.
func (r *Repository) Create(ctx context.Context, c Coupon) (Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `
		INSERT INTO coupons (tenant_id, code, kind, percent_value, amount_major, min_total_minor,
			usage_limit, valid_from, valid_to, active, service_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+couponColumns,
		c.TenantID, c.Code, c.Kind, c.PercentValue, c.AmountMajor, c.MinTotalMinor,
		c.UsageLimit, c.ValidFrom, c.ValidTo, c.Active, c.ServiceIDs))
}

// Update persists mutable coupon fields.
func (r *Repository) Update(ctx context.Context, c Coupon) (Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `
		UPDATE coupons
		SET kind = $3, percent_value = $4, amount_major = $5, min_total_minor = $6,
		    usage_limit = $7, valid_from = $8, valid_to = $9, active = $10, service_ids = $11,
		    updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+couponColumns,
		c.TenantID, c.ID, c.Kind, c.PercentValue, c.AmountMajor, c.MinTotalMinor,
		c.UsageLimit, c.ValidFrom, c.ValidTo, c.Active, c.ServiceIDs))
}

// GetByCode returns the tenant's coupon with the given code.
func (r *Repository) GetByCode(ctx context.Context, tenantID, code string) (Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `
		SELECT `+couponColumns+` FROM coupons WHERE tenant_id = $1 AND code = $2`, tenantID, code))
}

// GetByID returns a coupon by primary key within a tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `
		SELECT `+couponColumns+` FROM coupons WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// List returns all coupons of the tenant, newest first.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Coupon, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coupons, nil
}

// Delete removes a coupon.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps the used counter after a coupon was consumed by a booking.
func (r *Repository) IncrementUsage(ctx context.Context, tenantID, code string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE coupons SET used_count = used_count + 1, updated_at = now()
		WHERE tenant_id = $1 AND code = $2`, tenantID, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
