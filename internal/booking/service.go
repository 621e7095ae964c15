package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/events"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/quote"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// Store abstracts booking persistence for the service layer.
type Store interface {
	Create(ctx context.Context, b Booking) (Booking, error)
	GetByID(ctx context.Context, tenantID, id string) (Booking, error)
	List(ctx context.Context, tenantID, status string, limit, offset int) ([]Booking, int, error)
	UpdateStatus(ctx context.Context, tenantID, id, from, to string) (Booking, error)
}

// Quoter prices the booking request at creation time.
type Quoter interface {
	Quote(ctx context.Context, ten tenant.Tenant, req quote.Request) (quote.Result, error)
}

// Coupons records coupon redemptions once a booking is accepted.
type Coupons interface {
	MarkUsed(ctx context.Context, tenantID, code string) error
}

// Customer is the contact block of a booking request.
type Customer struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
	Address    string `json:"address" validate:"omitempty,max=300"`
	PostalCode string `json:"postalCode" validate:"omitempty,max=16"`
}

// CreateRequest is the public booking body: the quote inputs plus contact
// details.
type CreateRequest struct {
	quote.Request
	Customer      Customer   `json:"customer"`
	PreferredDate *time.Time `json:"preferredDate,omitempty"`
}

// Service implements booking creation and admin review.
type Service struct {
	store    Store
	quoter   Quoter
	coupons  Coupons
	bus      *events.Bus
	validate *validator.Validate
	logger   zerolog.Logger
}

// ServiceConfig configures the booking service.
type ServiceConfig struct {
	Store     Store
	Quoter    Quoter
	Coupons   Coupons
	Bus       *events.Bus
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
		store:    cfg.Store,
		quoter:   cfg.Quoter,
		coupons:  cfg.Coupons,
		bus:      cfg.Bus,
		validate: v,
		logger:   cfg.Logger,
	}
}

// Create prices the request and stores the booking in pending state. The
// breakdown returned by the engine is persisted verbatim so the quoted total
// survives later configuration changes.
func (s *Service) Create(ctx context.Context, ten tenant.Tenant, req CreateRequest) (Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Booking{}, common.BadRequest(strings.ToLower(verrs[0].Field()), "invalid booking request", err)
		}
		return Booking{}, common.BadRequest("body", "invalid booking request", err)
	}

	result, err := s.quoter.Quote(ctx, ten, req.Request)
	if err != nil {
		return Booking{}, err
	}
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return Booking{}, fmt.Errorf("encode breakdown: %w", err)
	}

	created, err := s.store.Create(ctx, Booking{
		TenantID:      ten.ID,
		ServiceID:     result.Service.ID,
		ServiceName:   result.Service.Name,
		Status:        StatusPending,
		CustomerName:  strings.TrimSpace(req.Customer.Name),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		CustomerPhone: strings.TrimSpace(req.Customer.Phone),
		Address:       strings.TrimSpace(req.Customer.Address),
		PostalCode:    strings.TrimSpace(req.Customer.PostalCode),
		PreferredDate: req.PreferredDate,
		FrequencyKey:  req.FrequencyKey,
		CouponCode:    result.CouponCode,
		Currency:      result.Breakdown.Currency,
		TotalMinor:    int64(result.Breakdown.TotalMinor),
		Breakdown:     breakdown,
	})
	if err != nil {
		return Booking{}, fmt.Errorf("create booking: %w", err)
	}

	s.countTransition(StatusPending)
	s.emit(ctx, events.TopicBookingCreated, created)
	s.logger.Info().
		Str("tenant_id", created.TenantID).
		Str("booking_id", created.ID).
		Str("service_id", created.ServiceID).
		Int64("total_minor", created.TotalMinor).
		Msg("booking created")
	return created, nil
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Booking, error) {
	b, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Booking{}, common.NotFound("booking", err)
		}
		return Booking{}, err
	}
	return b, nil
}

// List returns a page of bookings with pagination metadata.
func (s *Service) List(ctx context.Context, tenantID, status string, page, perPage int) ([]Booking, common.Pagination, error) {
	if status != "" && status != StatusPending && status != StatusAccepted && status != StatusRejected {
		return nil, common.Pagination{}, common.BadRequest("status", "unknown booking status", nil)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	items, total, err := s.store.List(ctx, tenantID, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return items, common.Pagination{Page: page, PerPage: perPage, TotalItems: total}, nil
}

// Accept transitions a pending booking to accepted, marks the coupon as
// redeemed, and emits booking.accepted.
func (s *Service) Accept(ctx context.Context, tenantID, id string) (Booking, error) {
	b, err := s.transition(ctx, tenantID, id, StatusAccepted)
	if err != nil {
		return Booking{}, err
	}
	if b.CouponCode != "" && s.coupons != nil {
		if err := s.coupons.MarkUsed(ctx, tenantID, b.CouponCode); err != nil {
			s.logger.Error().Err(err).Str("booking_id", b.ID).Str("coupon", b.CouponCode).Msg("coupon redemption not recorded")
		}
	}
	s.emit(ctx, events.TopicBookingAccepted, b)
	return b, nil
}

// Reject transitions a pending booking to rejected and emits
// booking.rejected.
func (s *Service) Reject(ctx context.Context, tenantID, id string) (Booking, error) {
	b, err := s.transition(ctx, tenantID, id, StatusRejected)
	if err != nil {
		return Booking{}, err
	}
	s.emit(ctx, events.TopicBookingRejected, b)
	return b, nil
}

func (s *Service) transition(ctx context.Context, tenantID, id, to string) (Booking, error) {
	b, err := s.store.UpdateStatus(ctx, tenantID, id, StatusPending, to)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Booking{}, common.NotFound("booking", err)
		}
		if errors.Is(err, ErrStaleStatus) {
			return Booking{}, common.Conflict("booking is no longer pending", err)
		}
		return Booking{}, err
	}
	s.countTransition(to)
	return b, nil
}

func (s *Service) countTransition(status string) {
	if obs.BookingTotal != nil {
		obs.BookingTotal.WithLabelValues(status).Inc()
	}
}

func (s *Service) emit(ctx context.Context, topic string, b Booking) {
	if s.bus == nil {
		return
	}
	payload := map[string]any{
		"booking_id":     b.ID,
		"customer_email": b.CustomerEmail,
		"customer_name":  b.CustomerName,
		"service_name":   b.ServiceName,
		"total_minor":    b.TotalMinor,
		"currency":       b.Currency,
	}
	if _, err := s.bus.Emit(ctx, b.TenantID, topic, b.ID, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", b.ID).Str("topic", topic).Msg("emit booking event failed")
	}
}
