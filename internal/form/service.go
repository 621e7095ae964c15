package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/cache"
	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/events"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/pricing"
	"github.com/noah-isme/backend-boka/internal/service"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Store abstracts form persistence for the service layer.
type Store interface {
	Create(ctx context.Context, f Form) (Form, error)
	Update(ctx context.Context, f Form) (Form, error)
	GetByID(ctx context.Context, tenantID, id string) (Form, error)
	GetBySlug(ctx context.Context, tenantID, slug string) (Form, error)
	List(ctx context.Context, tenantID string) ([]Form, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// Catalog resolves the service a form is bound to.
type Catalog interface {
	Get(ctx context.Context, tenantID, id string) (service.Record, error)
}

// Service exposes form management and the public published payload.
type Service struct {
	store   Store
	catalog Catalog
	cache   *cache.Cache
	bus     *events.Bus
	logger  zerolog.Logger
}

// ServiceConfig configures the form service.
type ServiceConfig struct {
	Store   Store
	Catalog Catalog
	Cache   *cache.Cache
	Bus     *events.Bus
	Logger  zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		cache:   cfg.Cache,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
	}
}

// Create validates and persists a new form. Publishing on create emits a
// form.published event.
func (s *Service) Create(ctx context.Context, f Form) (Form, error) {
	if err := s.validate(ctx, &f); err != nil {
		return Form{}, err
	}
	created, err := s.store.Create(ctx, f)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Form{}, common.Conflict("form slug already exists", err)
		}
		return Form{}, fmt.Errorf("create form: %w", err)
	}
	if created.Published {
		s.emitPublished(ctx, created)
	}
	s.logger.Info().Str("tenant_id", created.TenantID).Str("slug", created.Slug).Msg("form created")
	return created, nil
}

// Update validates and persists changes, invalidates the cached public
// payload, and emits form.published when the form transitions to published.
func (s *Service) Update(ctx context.Context, f Form) (Form, error) {
	if strings.TrimSpace(f.ID) == "" {
		return Form{}, common.BadRequest("id", "form id is required", nil)
	}
	if err := s.validate(ctx, &f); err != nil {
		return Form{}, err
	}
	previous, err := s.store.GetByID(ctx, f.TenantID, f.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Form{}, common.NotFound("form", err)
		}
		return Form{}, err
	}
	updated, err := s.store.Update(ctx, f)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Form{}, common.NotFound("form", err)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Form{}, common.Conflict("form slug already exists", err)
		}
		return Form{}, fmt.Errorf("update form: %w", err)
	}
	s.invalidate(ctx, updated.TenantID, previous.Slug, updated.Slug)
	if updated.Published && !previous.Published {
		s.emitPublished(ctx, updated)
	}
	return updated, nil
}

// Get returns one form by id.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Form, error) {
	f, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Form{}, common.NotFound("form", err)
		}
		return Form{}, err
	}
	return f, nil
}

// List returns all forms of the tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]Form, error) {
	return s.store.List(ctx, tenantID)
}

// Delete removes a form and drops its cached payload.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	f, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return common.NotFound("form", err)
		}
		return err
	}
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return common.NotFound("form", err)
		}
		return err
	}
	s.invalidate(ctx, tenantID, f.Slug, "")
	return nil
}

// PublicForm is the customer-facing payload of a published form: the fields
// a booking widget needs to render inputs and request quotes. Rate tables
// and internal pricing knobs stay server-side.
type PublicForm struct {
	Slug     string        `json:"slug"`
	Name     string        `json:"name"`
	Settings Settings      `json:"settings"`
	Service  PublicService `json:"service"`
}

// PublicService describes the bound service to the booking widget.
type PublicService struct {
	Slug             string                    `json:"slug"`
	Name             string                    `json:"name"`
	Model            string                    `json:"model"`
	InputsNeeded     []string                  `json:"inputsNeeded"`
	Frequencies      []FrequencyChoice         `json:"frequencies"`
	Addons           []pricing.Addon           `json:"addons,omitempty"`
	WindowTypes      []pricing.UnitType        `json:"windowTypes,omitempty"`
	RoomTypes        []pricing.UnitType        `json:"roomTypes,omitempty"`
	DynamicQuestions []pricing.DynamicQuestion `json:"dynamicQuestions,omitempty"`
}

// FrequencyChoice is one selectable recurrence cadence.
type FrequencyChoice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Public returns the published payload for a slug, served from cache when
// possible. Unpublished and missing forms are indistinguishable to callers.
func (s *Service) Public(ctx context.Context, tenantID, slug string) (PublicForm, error) {
	key := cache.Key(tenantID, "form:"+slug)

	var cached PublicForm
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("form cache read failed")
	}
	if hit {
		if obs.FormCacheHits != nil {
			obs.FormCacheHits.Inc()
		}
		return cached, nil
	}
	if obs.FormCacheMisses != nil {
		obs.FormCacheMisses.Inc()
	}

	f, err := s.store.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PublicForm{}, common.NotFound("form", err)
		}
		return PublicForm{}, err
	}
	if !f.Published {
		return PublicForm{}, common.NotFound("form", nil)
	}
	rec, err := s.catalog.Get(ctx, tenantID, f.ServiceID)
	if err != nil {
		return PublicForm{}, err
	}
	if !rec.Active {
		return PublicForm{}, common.NotFound("form", nil)
	}

	payload := buildPublicForm(f, rec)
	if err := s.cache.SetJSON(ctx, key, payload); err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("form cache write failed")
	}
	return payload, nil
}

// ServiceRecordBySlug resolves the published form's bound service record for
// the quote path.
func (s *Service) ServiceRecordBySlug(ctx context.Context, tenantID, slug string) (service.Record, error) {
	f, err := s.store.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return service.Record{}, common.NotFound("form", err)
		}
		return service.Record{}, err
	}
	if !f.Published {
		return service.Record{}, common.NotFound("form", nil)
	}
	return s.catalog.Get(ctx, tenantID, f.ServiceID)
}

func buildPublicForm(f Form, rec service.Record) PublicForm {
	cfg := rec.Config
	return PublicForm{
		Slug:     f.Slug,
		Name:     f.Name,
		Settings: f.Settings,
		Service: PublicService{
			Slug:             rec.Slug,
			Name:             rec.Name,
			Model:            cfg.Model,
			InputsNeeded:     service.InputsForModel(cfg.Model),
			Frequencies:      frequencyChoices(cfg),
			Addons:           cfg.Addons,
			WindowTypes:      cfg.WindowTypes,
			RoomTypes:        cfg.RoomTypes,
			DynamicQuestions: cfg.DynamicQuestions,
		},
	}
}

var builtinFrequencyLabels = []FrequencyChoice{
	{Key: pricing.FrequencyOneTime, Label: "One time"},
	{Key: pricing.FrequencyWeekly, Label: "Weekly"},
	{Key: pricing.FrequencyBiweekly, Label: "Every other week"},
	{Key: pricing.FrequencyMonthly, Label: "Monthly"},
}

func frequencyChoices(cfg pricing.ServiceConfig) []FrequencyChoice {
	out := make([]FrequencyChoice, 0, len(builtinFrequencyLabels)+len(cfg.FrequencyOptions))
	out = append(out, builtinFrequencyLabels...)
	for _, opt := range cfg.FrequencyOptions {
		label := opt.Label
		if label == "" {
			label = opt.Key
		}
		out = append(out, FrequencyChoice{Key: opt.Key, Label: label})
	}
	return out
}

func (s *Service) validate(ctx context.Context, f *Form) error {
	f.Slug = strings.ToLower(strings.TrimSpace(f.Slug))
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return common.BadRequest("name", "name is required", nil)
	}
	if !slugPattern.MatchString(f.Slug) {
		return common.BadRequest("slug", "slug must be lowercase letters, digits, and dashes", nil)
	}
	if strings.TrimSpace(f.ServiceID) == "" {
		return common.BadRequest("service_id", "service_id is required", nil)
	}
	if _, err := s.catalog.Get(ctx, f.TenantID, f.ServiceID); err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return common.BadRequest("service_id", "service does not exist", err)
		}
		return err
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, tenantID string, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		keys = append(keys, cache.Key(tenantID, "form:"+slug))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("form cache invalidation failed")
	}
}

func (s *Service) emitPublished(ctx context.Context, f Form) {
	if s.bus == nil {
		return
	}
	payload := map[string]any{
		"form_id":    f.ID,
		"slug":       f.Slug,
		"service_id": f.ServiceID,
	}
	if _, err := s.bus.Emit(ctx, f.TenantID, events.TopicFormPublished, f.ID, payload); err != nil {
		s.logger.Error().Err(err).Str("form_id", f.ID).Msg("emit form.published failed")
	}
}
