package coupon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/pricing"
)

// Store abstracts coupon persistence for the service layer.
type Store interface {
	Create(ctx context.Context, c Coupon) (Coupon, error)
	Update(ctx context.Context, c Coupon) (Coupon, error)
	GetByCode(ctx context.Context, tenantID, code string) (Coupon, error)
	GetByID(ctx context.Context, tenantID, id string) (Coupon, error)
	List(ctx context.Context, tenantID string) ([]Coupon, error)
	Delete(ctx context.Context, tenantID, id string) error
	IncrementUsage(ctx context.Context, tenantID, code string) error
}

// Service exposes coupon management and resolution.
type Service struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// ServiceConfig configures the coupon service.
type ServiceConfig struct {
	Store  Store
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{store: cfg.Store, logger: cfg.Logger, now: time.Now}
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and persists a new coupon.
func (s *Service) Create(ctx context.Context, c Coupon) (Coupon, error) {
	if err := s.validate(&c); err != nil {
		return Coupon{}, err
	}
	created, err := s.store.Create(ctx, c)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Coupon{}, common.Conflict("coupon code already exists", err)
		}
		return Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	s.logger.Info().Str("tenant_id", created.TenantID).Str("code", created.Code).Msg("coupon created")
	return created, nil
}

// Update validates and persists changes to an existing coupon.
func (s *Service) Update(ctx context.Context, c Coupon) (Coupon, error) {
	if strings.TrimSpace(c.ID) == "" {
		return Coupon{}, common.BadRequest("id", "coupon id is required", nil)
	}
	if err := s.validate(&c); err != nil {
		return Coupon{}, err
	}
	updated, err := s.store.Update(ctx, c)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Coupon{}, common.NotFound("coupon", err)
		}
		return Coupon{}, fmt.Errorf("update coupon: %w", err)
	}
	return updated, nil
}

// Get returns one coupon by id.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Coupon, error) {
	c, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Coupon{}, common.NotFound("coupon", err)
		}
		return Coupon{}, err
	}
	return c, nil
}

// List returns all coupons of the tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]Coupon, error) {
	return s.store.List(ctx, tenantID)
}

// Delete removes a coupon.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return common.NotFound("coupon", err)
		}
		return err
	}
	return nil
}

// Resolve looks up a coupon code and checks that it may be applied to the
// given service and pre-discount total. On success it returns the discount
// in the shape the pricing engine consumes.
func (s *Service) Resolve(ctx context.Context, tenantID, code, serviceID string, preDiscountMinor int64) (pricing.Coupon, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return pricing.Coupon{}, common.BadRequest("coupon_code", "coupon code is required", nil)
	}
	c, err := s.store.GetByCode(ctx, tenantID, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.countResolve("not_found")
			return pricing.Coupon{}, common.NewAppError("COUPON_INVALID", "coupon code is not valid", http.StatusUnprocessableEntity, err)
		}
		return pricing.Coupon{}, err
	}
	rule := c.Rule()
	if err := rule.Validate(s.now(), serviceID, preDiscountMinor); err != nil {
		s.countResolve("rejected")
		return pricing.Coupon{}, common.NewAppError("COUPON_INVALID", couponRejectionMessage(err), http.StatusUnprocessableEntity, err)
	}
	s.countResolve("ok")
	return rule.ToCoupon(), nil
}

// MarkUsed records one use of the coupon. Call after a booking was accepted for persistence.
func (s *Service) MarkUsed(ctx context.Context, tenantID, code string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return nil
	}
	if err := s.store.IncrementUsage(ctx, tenantID, trimmed); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) countResolve(result string) {
	if obs.CouponApplyTotal != nil {
		obs.CouponApplyTotal.WithLabelValues(result).Inc()
	}
}

func couponRejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "coupon has expired"
	case errors.Is(err, ErrInactive):
		return "coupon is not active"
	case errors.Is(err, ErrUsageLimitReached):
		return "coupon usage limit reached"
	case errors.Is(err, ErrMinimumTotalUnmet):
		return "quote total does not meet the coupon minimum"
	default:
		return "coupon cannot be applied to this service"
	}
}

func (s *Service) validate(c *Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return common.BadRequest("code", "code is required", nil)
	}
	switch c.Kind {
	case pricing.CouponPercent:
		if c.PercentValue <= 0 || c.PercentValue > 100 {
			return common.BadRequest("percent_value", "percent value must be within (0, 100]", nil)
		}
	case pricing.CouponFixed:
		if c.AmountMajor <= 0 {
			return common.BadRequest("amount_major", "amount must be positive", nil)
		}
	default:
		return common.BadRequest("kind", "kind must be percent or fixed", nil)
	}
	if c.MinTotalMinor < 0 {
		return common.BadRequest("min_total_minor", "minimum total cannot be negative", nil)
	}
	if c.ValidFrom != nil && c.ValidTo != nil && c.ValidTo.Before(*c.ValidFrom) {
		return common.BadRequest("valid_to", "validity window ends before it starts", nil)
	}
	return nil
}
