package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the tenant does not exist.
var ErrNotFound = errors.New("tenant not found")

// Tenant holds company-level settings shared by every service of a tenant.
type Tenant struct {
	ID                  string    `json:"id"`
	Slug                string    `json:"slug"`
	Name                string    `json:"name"`
	Currency            string    `json:"currency"`
	VATRatePercent      float64   `json:"vat_rate_percent"`
	TaxDeductionEnabled bool      `json:"tax_deduction_enabled"`
	ContactEmail        string    `json:"contact_email"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Repository provides PostgreSQL backed persistence for tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tenantColumns = `id, slug, name, currency, vat_rate_percent, tax_deduction_enabled, COALESCE(contact_email, ''), created_at, updated_at`

// GetBySlug returns the tenant identified by its slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug).
		Scan(&t.ID, &t.Slug, &t.Name, &t.Currency, &t.VATRatePercent, &t.TaxDeductionEnabled, &t.ContactEmail, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

// GetByID returns the tenant identified by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Slug, &t.Name, &t.Currency, &t.VATRatePercent, &t.TaxDeductionEnabled, &t.ContactEmail, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

// UpdateSettings persists mutable company settings and returns the updated row.
func (r *Repository) UpdateSettings(ctx context.Context, slug string, update SettingsUpdate) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `
		UPDATE tenants
		SET name = $2,
		    currency = $3,
		    vat_rate_percent = $4,
		    tax_deduction_enabled = $5,
		    contact_email = NULLIF($6, ''),
		    updated_at = now()
		WHERE slug = $1
		RETURNING `+tenantColumns,
		slug, update.Name, update.Currency, update.VATRatePercent, update.TaxDeductionEnabled, update.ContactEmail).
		Scan(&t.ID, &t.Slug, &t.Name, &t.Currency, &t.VATRatePercent, &t.TaxDeductionEnabled, &t.ContactEmail, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

// SettingsUpdate carries the mutable subset of tenant settings.
type SettingsUpdate struct {
	Name                string  `json:"name"`
	Currency            string  `json:"currency"`
	VATRatePercent      float64 `json:"vat_rate_percent"`
	TaxDeductionEnabled bool    `json:"tax_deduction_enabled"`
	ContactEmail        string  `json:"contact_email"`
}
