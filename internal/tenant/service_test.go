package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-boka/internal/common"
)

type fakeStore struct {
	tenants map[string]Tenant
	updated SettingsUpdate
}

func (f *fakeStore) GetBySlug(_ context.Context, slug string) (Tenant, error) {
	t, ok := f.tenants[slug]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Tenant, error) {
	for _, t := range f.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (f *fakeStore) UpdateSettings(_ context.Context, slug string, update SettingsUpdate) (Tenant, error) {
	t, ok := f.tenants[slug]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	f.updated = update
	t.Name = update.Name
	t.Currency = update.Currency
	t.VATRatePercent = update.VATRatePercent
	t.TaxDeductionEnabled = update.TaxDeductionEnabled
	t.ContactEmail = update.ContactEmail
	f.tenants[slug] = t
	return t, nil
}

func newTestService(store *fakeStore) *Service {
	return NewService(ServiceConfig{Store: store, Logger: zerolog.Nop()})
}

func TestResolveRequiresTenantContext(t *testing.T) {
	svc := newTestService(&fakeStore{tenants: map[string]Tenant{}})
	_, err := svc.Resolve(context.Background())

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "TENANT_REQUIRED", appErr.Code)
}

func TestResolveUnknownTenant(t *testing.T) {
	svc := newTestService(&fakeStore{tenants: map[string]Tenant{}})
	ctx := WithTenant(context.Background(), "ghost")
	_, err := svc.Resolve(ctx)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestUpdateCompanyNormalisesAndValidates(t *testing.T) {
	store := &fakeStore{tenants: map[string]Tenant{
		"clean-co": {ID: "t1", Slug: "clean-co", Name: "Clean Co", Currency: "SEK", VATRatePercent: 25},
	}}
	svc := newTestService(store)
	ctx := WithTenant(context.Background(), "clean-co")

	updated, err := svc.UpdateCompany(ctx, SettingsUpdate{
		Name:                "  Clean Co AB ",
		Currency:            "sek",
		VATRatePercent:      25,
		TaxDeductionEnabled: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Clean Co AB", updated.Name)
	require.Equal(t, "SEK", updated.Currency)
	require.True(t, updated.TaxDeductionEnabled)

	_, err = svc.UpdateCompany(ctx, SettingsUpdate{Name: "X", Currency: "kronor", VATRatePercent: 25})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	_, err = svc.UpdateCompany(ctx, SettingsUpdate{Name: "X", Currency: "SEK", VATRatePercent: 120})
	require.Error(t, err)
}

func TestResolverPrefersHeaderOverSubdomain(t *testing.T) {
	resolver := NewResolver("X-Tenant-ID", "boka.example", "")

	req := httptest.NewRequest(http.MethodGet, "http://clean-co.boka.example/api/v1/quote", nil)
	require.Equal(t, "clean-co", resolver.Resolve(req))

	req.Header.Set("X-Tenant-ID", "other-co")
	require.Equal(t, "other-co", resolver.Resolve(req))
}

func TestResolverIgnoresForeignHosts(t *testing.T) {
	resolver := NewResolver("", "boka.example", "")
	req := httptest.NewRequest(http.MethodGet, "http://evil.example/api/v1/quote", nil)
	require.Empty(t, resolver.Resolve(req))
}

func TestMiddlewareInjectsDefaultTenant(t *testing.T) {
	resolver := NewResolver("", "", "solo")
	var got string
	handler := resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = From(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://localhost/", nil))
	require.Equal(t, "solo", got)
}
