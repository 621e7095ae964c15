package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/pricing"
)

type fakeStore struct {
	byCode map[string]Coupon
	usage  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byCode: map[string]Coupon{}, usage: map[string]int{}}
}

func (f *fakeStore) key(tenantID, code string) string { return tenantID + "/" + code }

func (f *fakeStore) Create(_ context.Context, c Coupon) (Coupon, error) {
	c.ID = "c-" + c.Code
	f.byCode[f.key(c.TenantID, c.Code)] = c
	return c, nil
}

func (f *fakeStore) Update(_ context.Context, c Coupon) (Coupon, error) {
	for k, existing := range f.byCode {
		if existing.TenantID == c.TenantID && existing.ID == c.ID {
			c.Code = existing.Code
			f.byCode[k] = c
			return c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

func (f *fakeStore) GetByCode(_ context.Context, tenantID, code string) (Coupon, error) {
	c, ok := f.byCode[f.key(tenantID, code)]
	if !ok {
		return Coupon{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, id string) (Coupon, error) {
	for _, c := range f.byCode {
		if c.TenantID == tenantID && c.ID == id {
			return c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

func (f *fakeStore) List(_ context.Context, tenantID string) ([]Coupon, error) {
	var out []Coupon
	for _, c := range f.byCode {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, tenantID, id string) error {
	for k, c := range f.byCode {
		if c.TenantID == tenantID && c.ID == id {
			delete(f.byCode, k)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) IncrementUsage(_ context.Context, tenantID, code string) error {
	k := f.key(tenantID, code)
	c, ok := f.byCode[k]
	if !ok {
		return ErrNotFound
	}
	c.UsedCount++
	f.byCode[k] = c
	f.usage[k]++
	return nil
}

func newService(store Store) *Service {
	return NewService(ServiceConfig{Store: store, Logger: zerolog.Nop()})
}

func TestCreateNormalisesCode(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	created, err := svc.Create(context.Background(), Coupon{
		TenantID:     "t1",
		Code:         "  spring20 ",
		Kind:         pricing.CouponPercent,
		PercentValue: 20,
		Active:       true,
	})
	require.NoError(t, err)
	require.Equal(t, "SPRING20", created.Code)
}

func TestCreateValidatesKind(t *testing.T) {
	svc := newService(newFakeStore())

	_, err := svc.Create(context.Background(), Coupon{TenantID: "t1", Code: "X", Kind: "bogus"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	_, err = svc.Create(context.Background(), Coupon{TenantID: "t1", Code: "X", Kind: pricing.CouponPercent, PercentValue: 150})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Coupon{TenantID: "t1", Code: "X", Kind: pricing.CouponFixed, AmountMajor: -5})
	require.Error(t, err)
}

func TestResolveReturnsEngineCoupon(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	_, err := svc.Create(context.Background(), Coupon{
		TenantID:    "t1",
		Code:        "FLAT100",
		Kind:        pricing.CouponFixed,
		AmountMajor: 100,
		Active:      true,
	})
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), "t1", "flat100", "svc-1", 50000)
	require.NoError(t, err)
	require.Equal(t, pricing.Coupon{Kind: pricing.CouponFixed, Magnitude: 100}, resolved)
}

func TestResolveRejectsExpired(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), Coupon{
		TenantID:     "t1",
		Code:         "OLD",
		Kind:         pricing.CouponPercent,
		PercentValue: 10,
		Active:       true,
		ValidTo:      &past,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "t1", "OLD", "svc-1", 50000)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "COUPON_INVALID", appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
}

func TestResolveEnforcesServiceScopeAndMinimum(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	_, err := svc.Create(context.Background(), Coupon{
		TenantID:      "t1",
		Code:          "SCOPED",
		Kind:          pricing.CouponPercent,
		PercentValue:  10,
		Active:        true,
		MinTotalMinor: 100000,
		ServiceIDs:    []string{"svc-1"},
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "t1", "SCOPED", "svc-2", 200000)
	require.Error(t, err)

	_, err = svc.Resolve(context.Background(), "t1", "SCOPED", "svc-1", 50000)
	require.Error(t, err)

	resolved, err := svc.Resolve(context.Background(), "t1", "SCOPED", "svc-1", 200000)
	require.NoError(t, err)
	require.Equal(t, pricing.CouponPercent, resolved.Kind)
}

func TestResolveUsageLimit(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	limit := int32(1)
	_, err := svc.Create(context.Background(), Coupon{
		TenantID:     "t1",
		Code:         "ONCE",
		Kind:         pricing.CouponPercent,
		PercentValue: 10,
		Active:       true,
		UsageLimit:   &limit,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "t1", "ONCE", "svc-1", 50000)
	require.NoError(t, err)

	require.NoError(t, svc.MarkUsed(context.Background(), "t1", "ONCE"))
	_, err = svc.Resolve(context.Background(), "t1", "ONCE", "svc-1", 50000)
	require.Error(t, err)
}

func TestRuleValidateWindow(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	rule := Rule{Active: true, ValidFrom: &future}
	require.ErrorIs(t, rule.Validate(now, "svc", 0), ErrInactive)

	rule = Rule{Active: false}
	require.ErrorIs(t, rule.Validate(now, "svc", 0), ErrInactive)
}
