// Package form manages embeddable booking forms: admin CRUD plus the cached
// public payload customers load before requesting a quote.
package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the form does not exist.
var ErrNotFound = errors.New("form not found")

// Settings holds presentation options stored as JSONB alongside the form.
type Settings struct {
	IntroText          string `json:"introText,omitempty"`
	SuccessMessage     string `json:"successMessage,omitempty"`
	ThemeColor         string `json:"themeColor,omitempty"`
	ShowPriceBreakdown bool   `json:"showPriceBreakdown"`
}

// Form binds a public slug to one bookable service.
type Form struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ServiceID string    `json:"service_id"`
	Published bool      `json:"published"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository provides PostgreSQL backed persistence for forms.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const formColumns = `id, tenant_id, slug, name, service_id, published, settings, created_at, updated_at`

func scanForm(row pgx.Row) (Form, error) {
	var f Form
	var settings []byte
	err := row.Scan(&f.ID, &f.TenantID, &f.Slug, &f.Name, &f.ServiceID, &f.Published, &settings, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Form{}, ErrNotFound
		}
		return Form{}, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &f.Settings); err != nil {
			return Form{}, fmt.Errorf("decode form settings: %w", err)
		}
	}
	return f, nil
}

// Create inserts a form.
func (r *Repository) Create(ctx context.Context, f Form) (Form, error) {
	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return Form{}, fmt.Errorf("encode form settings: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO forms (tenant_id, slug, name, service_id, published, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+formColumns,
		f.TenantID, f.Slug, f.Name, f.ServiceID, f.Published, settings,
	)
	return scanForm(row)
}

// Update replaces the mutable fields of a form.
func (r *Repository) Update(ctx context.Context, f Form) (Form, error) {
	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return Form{}, fmt.Errorf("encode form settings: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE forms
		SET slug = $3, name = $4, service_id = $5, published = $6, settings = $7, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+formColumns,
		f.TenantID, f.ID, f.Slug, f.Name, f.ServiceID, f.Published, settings,
	)
	return scanForm(row)
}

// GetByID fetches one form by id within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (Form, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	return scanForm(row)
}

// GetBySlug fetches one form by slug within the tenant.
func (r *Repository) GetBySlug(ctx context.Context, tenantID, slug string) (Form, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE tenant_id = $1 AND slug = $2`,
		tenantID, slug,
	)
	return scanForm(row)
}

// List returns every form of the tenant, newest first.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Form, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+formColumns+` FROM forms WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a form.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM forms WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
