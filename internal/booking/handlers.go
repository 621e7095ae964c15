package booking

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// Tenants resolves the requesting tenant from the context.
type Tenants interface {
	Resolve(ctx context.Context) (tenant.Tenant, error)
}

// Handler exposes the public booking endpoint and the admin review
// endpoints.
type Handler struct {
	service *Service
	tenants Tenants
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	Tenants Tenants
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, tenants: cfg.Tenants}
}

// Create handles POST /api/v1/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ten, err := h.tenants.Resolve(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	created, err := h.service.Create(r.Context(), ten, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (h *Handler) tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be determined from the request", nil)
		return "", false
	}
	return tenantID, true
}

// List handles GET /api/v1/admin/bookings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	bookings, pagination, err := h.service.List(r.Context(), tenantID, r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": bookings, "pagination": pagination})
}

// Get handles GET /api/v1/admin/bookings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// Accept handles POST /api/v1/admin/bookings/{id}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Accept(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// Reject handles POST /api/v1/admin/bookings/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Reject(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}
