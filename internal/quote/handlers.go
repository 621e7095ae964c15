package quote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/service"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// Tenants resolves the requesting tenant from the context.
type Tenants interface {
	Resolve(ctx context.Context) (tenant.Tenant, error)
}

// Forms resolves the service bound to a published form slug.
type Forms interface {
	ServiceRecordBySlug(ctx context.Context, tenantID, slug string) (service.Record, error)
}

// Handler exposes the public quote endpoints.
type Handler struct {
	service *Service
	tenants Tenants
	forms   Forms
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	Tenants Tenants
	Forms   Forms
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, tenants: cfg.Tenants, forms: cfg.Forms}
}

// Quote handles POST /api/v1/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	ten, err := h.tenants.Resolve(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	result, err := h.service.Quote(r.Context(), ten, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result.Breakdown})
}

// FormQuote handles POST /api/v1/forms/{slug}/quote. The form binds the
// service, so serviceId/serviceSlug in the body are ignored.
func (h *Handler) FormQuote(w http.ResponseWriter, r *http.Request) {
	ten, err := h.tenants.Resolve(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.forms.ServiceRecordBySlug(r.Context(), ten.ID, chi.URLParam(r, "slug"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	result, err := h.service.QuoteForService(r.Context(), ten, rec, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result.Breakdown})
}
