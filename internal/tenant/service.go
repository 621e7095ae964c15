package tenant

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/common"
)

// Store abstracts tenant persistence for the service layer.
type Store interface {
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	GetByID(ctx context.Context, id string) (Tenant, error)
	UpdateSettings(ctx context.Context, slug string, update SettingsUpdate) (Tenant, error)
}

// Service exposes tenant settings operations.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// ServiceConfig configures the tenant service.
type ServiceConfig struct {
	Store  Store
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{store: cfg.Store, logger: cfg.Logger}
}

// Resolve loads the tenant for the slug stored on the context by the resolver middleware.
func (s *Service) Resolve(ctx context.Context) (Tenant, error) {
	slug, ok := From(ctx)
	if !ok {
		return Tenant{}, common.NewAppError("TENANT_REQUIRED", "tenant could not be determined from the request", http.StatusBadRequest, nil)
	}
	t, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tenant{}, common.NotFound("tenant", err)
		}
		return Tenant{}, err
	}
	return t, nil
}

// Company returns the current tenant's company settings.
func (s *Service) Company(ctx context.Context) (Tenant, error) {
	return s.Resolve(ctx)
}

// UpdateCompany validates and persists company settings for the current tenant.
func (s *Service) UpdateCompany(ctx context.Context, update SettingsUpdate) (Tenant, error) {
	slug, ok := From(ctx)
	if !ok {
		return Tenant{}, common.NewAppError("TENANT_REQUIRED", "tenant could not be determined from the request", http.StatusBadRequest, nil)
	}
	update.Name = strings.TrimSpace(update.Name)
	update.Currency = strings.ToUpper(strings.TrimSpace(update.Currency))
	update.ContactEmail = strings.TrimSpace(update.ContactEmail)
	if update.Name == "" {
		return Tenant{}, common.BadRequest("name", "name is required", nil)
	}
	if len(update.Currency) != 3 {
		return Tenant{}, common.BadRequest("currency", "currency must be a three-letter code", nil)
	}
	if update.VATRatePercent < 0 || update.VATRatePercent > 100 {
		return Tenant{}, common.BadRequest("vat_rate_percent", "vat rate must be between 0 and 100", nil)
	}
	t, err := s.store.UpdateSettings(ctx, slug, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tenant{}, common.NotFound("tenant", err)
		}
		return Tenant{}, err
	}
	s.logger.Info().Str("tenant_id", t.ID).Str("slug", t.Slug).Msg("company settings updated")
	return t, nil
}
