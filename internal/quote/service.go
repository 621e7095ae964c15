// Package quote is the HTTP surface of the pricing engine: request
// validation, tenant and service resolution, coupon application, and error
// mapping. All arithmetic lives in pricing.
package quote

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/pricing"
	"github.com/noah-isme/backend-boka/internal/service"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// Request is the quote request body. Either ServiceID or ServiceSlug selects
// the service; form-bound quotes carry the service implicitly.
type Request struct {
	ServiceID         string                   `json:"serviceId" validate:"omitempty,max=64"`
	ServiceSlug       string                   `json:"serviceSlug" validate:"omitempty,max=128"`
	FrequencyKey      string                   `json:"frequencyKey" validate:"omitempty,max=64"`
	Inputs            pricing.QuoteInputs      `json:"inputs"`
	Addons            []pricing.AddonSelection `json:"addons" validate:"max=64"`
	ApplyTaxDeduction bool                     `json:"applyTaxDeduction"`
	CouponCode        string                   `json:"couponCode" validate:"omitempty,max=64"`
	Answers           map[string]any           `json:"answers"`
}

// Result bundles a computed breakdown with the service it was priced
// against; booking creation reuses it.
type Result struct {
	Breakdown  pricing.Breakdown `json:"breakdown"`
	Service    service.Record    `json:"-"`
	CouponCode string            `json:"-"`
}

// Catalog resolves service records for quoting.
type Catalog interface {
	Get(ctx context.Context, tenantID, id string) (service.Record, error)
	GetBySlug(ctx context.Context, tenantID, slug string) (service.Record, error)
}

// Coupons resolves coupon codes against the pre-discount total.
type Coupons interface {
	Resolve(ctx context.Context, tenantID, code, serviceID string, preDiscountMinor int64) (pricing.Coupon, error)
}

// Service computes quotes for HTTP callers.
type Service struct {
	catalog  Catalog
	coupons  Coupons
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceConfig configures the quote service.
type ServiceConfig struct {
	Catalog   Catalog
	Coupons   Coupons
	Validator *validator.Validate
	Logger    zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	v := cfg.Validator
	if v == nil {
		v = validator.New()
	}
	return &Service{
		catalog:  cfg.Catalog,
		coupons:  cfg.Coupons,
		validate: v,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Quote resolves the service named by the request and prices it.
func (s *Service) Quote(ctx context.Context, ten tenant.Tenant, req Request) (Result, error) {
	if err := s.checkRequest(req); err != nil {
		return Result{}, err
	}
	rec, err := s.resolveService(ctx, ten.ID, req)
	if err != nil {
		return Result{}, err
	}
	return s.QuoteForService(ctx, ten, rec, req)
}

// QuoteForService prices an already-resolved service record. Form-bound
// quotes enter here directly.
func (s *Service) QuoteForService(ctx context.Context, ten tenant.Tenant, rec service.Record, req Request) (Result, error) {
	if err := s.checkRequest(req); err != nil {
		return Result{}, err
	}
	if !rec.Active {
		return Result{}, common.NotFound("service", nil)
	}

	engineReq := pricing.QuoteRequest{
		Tenant: pricing.TenantContext{
			Currency:            ten.Currency,
			VATRatePercent:      ten.VATRatePercent,
			TaxDeductionEnabled: ten.TaxDeductionEnabled,
		},
		Service:           rec.Config,
		FrequencyKey:      req.FrequencyKey,
		Inputs:            req.Inputs,
		SelectedAddons:    req.Addons,
		ApplyTaxDeduction: req.ApplyTaxDeduction,
		Answers:           req.Answers,
	}

	couponCode := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	if couponCode != "" {
		// Price once without the coupon so the discount is resolved
		// against the real pre-discount total.
		preliminary, err := s.compute(rec.Config.Model, engineReq)
		if err != nil {
			return Result{}, err
		}
		coupon, err := s.coupons.Resolve(ctx, ten.ID, couponCode, rec.ID, int64(preliminary.TotalMinor))
		if err != nil {
			return Result{}, err
		}
		engineReq.Coupon = &coupon
	}

	breakdown, err := s.compute(rec.Config.Model, engineReq)
	if err != nil {
		return Result{}, err
	}
	return Result{Breakdown: breakdown, Service: rec, CouponCode: couponCode}, nil
}

func (s *Service) compute(model string, req pricing.QuoteRequest) (pricing.Breakdown, error) {
	start := s.now()
	breakdown, err := pricing.Compute(req)
	if obs.QuoteComputeDuration != nil {
		obs.QuoteComputeDuration.WithLabelValues(model).Observe(float64(time.Since(start).Milliseconds()))
	}
	countCompute(model, err)
	if err != nil {
		return pricing.Breakdown{}, s.mapEngineError(model, err)
	}
	return breakdown, nil
}

func countCompute(model string, err error) {
	if obs.QuoteComputeTotal == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case isConfigurationError(err):
		result = "config_invalid"
	case isUnknownFrequency(err):
		result = "unknown_frequency"
	default:
		result = "invariant_violation"
	}
	obs.QuoteComputeTotal.WithLabelValues(model, result).Inc()
}

func isConfigurationError(err error) bool {
	var target *pricing.ConfigurationError
	return errors.As(err, &target)
}

func isUnknownFrequency(err error) bool {
	var target *pricing.UnknownFrequencyError
	return errors.As(err, &target)
}

func (s *Service) mapEngineError(model string, err error) error {
	var cfgErr *pricing.ConfigurationError
	if errors.As(err, &cfgErr) {
		return common.NewAppError("CONFIG_INVALID", "pricing configuration is invalid", http.StatusUnprocessableEntity, err).
			WithDetails(map[string]any{"model": cfgErr.Model, "issues": cfgErr.Issues})
	}
	var freqErr *pricing.UnknownFrequencyError
	if errors.As(err, &freqErr) {
		return common.NewAppError("UNKNOWN_FREQUENCY", "unknown frequency key", http.StatusBadRequest, err).
			WithDetails(map[string]any{"key": freqErr.Key, "allowed": freqErr.Allowed})
	}
	var invErr *pricing.InvariantViolationError
	if errors.As(err, &invErr) {
		s.logger.Error().Err(err).Str("model", model).Msg("quote accounting invariant violated")
		return common.NewAppError("INVARIANT_VIOLATION", "internal pricing error", http.StatusInternalServerError, err)
	}
	return err
}

func (s *Service) resolveService(ctx context.Context, tenantID string, req Request) (service.Record, error) {
	if req.ServiceID != "" {
		return s.catalog.Get(ctx, tenantID, req.ServiceID)
	}
	slug := strings.ToLower(strings.TrimSpace(req.ServiceSlug))
	if slug == "" {
		return service.Record{}, common.BadRequest("serviceId", "serviceId or serviceSlug is required", nil)
	}
	return s.catalog.GetBySlug(ctx, tenantID, slug)
}

func (s *Service) checkRequest(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return common.BadRequest(strings.ToLower(verrs[0].Field()), "invalid quote request", err)
		}
		return common.BadRequest("body", "invalid quote request", err)
	}
	if req.Inputs.Area < 0 {
		return common.BadRequest("inputs.area", "area must not be negative", nil)
	}
	for key, n := range req.Inputs.Rooms {
		if n < 0 {
			return common.BadRequest("inputs.rooms."+key, "count must not be negative", nil)
		}
	}
	for key, n := range req.Inputs.WindowCounts {
		if n < 0 {
			return common.BadRequest("inputs.windowCounts."+key, "count must not be negative", nil)
		}
	}
	for _, sel := range req.Addons {
		if sel.Quantity < 0 {
			return common.BadRequest("addons."+sel.Key, "quantity must not be negative", nil)
		}
	}
	return nil
}
