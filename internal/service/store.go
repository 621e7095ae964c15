// Package service manages the per-tenant catalog of bookable services and
// their pricing configurations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-boka/internal/pricing"
)

// ErrNotFound indicates the service does not exist.
var ErrNotFound = errors.New("service not found")

// Record is a bookable service with its pricing configuration stored as JSONB.
type Record struct {
	ID          string                `json:"id"`
	TenantID    string                `json:"tenant_id"`
	Slug        string                `json:"slug"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Active      bool                  `json:"active"`
	Config      pricing.ServiceConfig `json:"config"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Repository provides PostgreSQL backed persistence for services.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const serviceColumns = `id, tenant_id, slug, name, COALESCE(description, ''), active, config, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var config []byte
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.Slug, &rec.Name, &rec.Description, &rec.Active, &config, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if err := json.Unmarshal(config, &rec.Config); err != nil {
		return Record{}, fmt.Errorf("decode service config: %w", err)
	}
	return rec, nil
}

// Create inserts a new service.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	config, err := json.Marshal(rec.Config)
	if err != nil {
		return Record{}, fmt.Errorf("encode service config: %w", err)
	}
	return scanRecord(r.pool.QueryRow(ctx, `
		INSERT INTO services (tenant_id, slug, name, description, active, config)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING `+serviceColumns,
		rec.TenantID, rec.Slug, rec.Name, rec.Description, rec.Active, config))
}

// Update persists mutable service fields.
func (r *Repository) Update(ctx context.Context, rec Record) (Record, error) {
	config, err := json.Marshal(rec.Config)
	if err != nil {
		return Record{}, fmt.Errorf("encode service config: %w", err)
	}
	return scanRecord(r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $3, description = NULLIF($4, ''), active = $5, config = $6, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+serviceColumns,
		rec.TenantID, rec.ID, rec.Name, rec.Description, rec.Active, config))
}

// GetByID returns a service by primary key within a tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// GetBySlug returns a service by slug within a tenant.
func (r *Repository) GetBySlug(ctx context.Context, tenantID, slug string) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE tenant_id = $1 AND slug = $2`, tenantID, slug))
}

// List returns all services of the tenant ordered by name.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a service.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
