package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/pricing"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Store abstracts service persistence for the service layer.
type Store interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) (Record, error)
	GetByID(ctx context.Context, tenantID, id string) (Record, error)
	GetBySlug(ctx context.Context, tenantID, slug string) (Record, error)
	List(ctx context.Context, tenantID string) ([]Record, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// Service exposes catalog management operations. Pricing configurations are
// validated on every write so the quote path never sees a broken config.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// ServiceConfig configures the catalog service.
type ServiceConfig struct {
	Store  Store
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{store: cfg.Store, logger: cfg.Logger}
}

// Create validates and persists a new service.
func (s *Service) Create(ctx context.Context, rec Record) (Record, error) {
	if err := s.validate(&rec); err != nil {
		return Record{}, err
	}
	created, err := s.store.Create(ctx, rec)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, common.Conflict("service slug already exists", err)
		}
		return Record{}, fmt.Errorf("create service: %w", err)
	}
	s.logger.Info().Str("tenant_id", created.TenantID).Str("slug", created.Slug).Str("model", created.Config.Model).Msg("service created")
	return created, nil
}

// Update validates and persists changes to an existing service.
func (s *Service) Update(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return Record{}, common.BadRequest("id", "service id is required", nil)
	}
	if err := s.validate(&rec); err != nil {
		return Record{}, err
	}
	updated, err := s.store.Update(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, common.NotFound("service", err)
		}
		return Record{}, fmt.Errorf("update service: %w", err)
	}
	return updated, nil
}

// Get returns one service by id.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Record, error) {
	rec, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, common.NotFound("service", err)
		}
		return Record{}, err
	}
	return rec, nil
}

// GetBySlug returns one service by slug.
func (s *Service) GetBySlug(ctx context.Context, tenantID, slug string) (Record, error) {
	rec, err := s.store.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, common.NotFound("service", err)
		}
		return Record{}, err
	}
	return rec, nil
}

// List returns all services of the tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]Record, error) {
	return s.store.List(ctx, tenantID)
}

// PublicSummary is the catalog entry exposed to unauthenticated callers.
type PublicSummary struct {
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	InputsNeeded []string `json:"inputsNeeded"`
}

// ListPublic returns the tenant's active services in summary form.
func (s *Service) ListPublic(ctx context.Context, tenantID string) ([]PublicSummary, error) {
	recs, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]PublicSummary, 0, len(recs))
	for _, rec := range recs {
		if !rec.Active {
			continue
		}
		out = append(out, PublicSummary{
			Slug:         rec.Slug,
			Name:         rec.Name,
			Model:        rec.Config.Model,
			InputsNeeded: InputsForModel(rec.Config.Model),
		})
	}
	return out, nil
}

// InputsForModel names the quantity inputs a pricing model expects.
func InputsForModel(model string) []string {
	switch model {
	case pricing.ModelWindows:
		return []string{"windowCounts"}
	case pricing.ModelPerRoom:
		return []string{"rooms"}
	default:
		return []string{"area"}
	}
}

// Delete removes a service.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return common.NotFound("service", err)
		}
		return err
	}
	return nil
}

func (s *Service) validate(rec *Record) error {
	rec.Slug = strings.ToLower(strings.TrimSpace(rec.Slug))
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return common.BadRequest("name", "name is required", nil)
	}
	if !slugPattern.MatchString(rec.Slug) {
		return common.BadRequest("slug", "slug must be lowercase letters, digits, and dashes", nil)
	}
	if err := pricing.ValidateConfig(rec.Config); err != nil {
		var cfgErr *pricing.ConfigurationError
		if errors.As(err, &cfgErr) {
			return common.NewAppError("CONFIG_INVALID", "pricing configuration is invalid", http.StatusUnprocessableEntity, err).
				WithDetails(map[string]any{"model": cfgErr.Model, "issues": cfgErr.Issues})
		}
		return err
	}
	return nil
}
