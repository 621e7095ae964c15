package coupon

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// Handler exposes admin coupon endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

func (h *Handler) tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be determined from the request", nil)
		return "", false
	}
	return tenantID, true
}

// List handles GET /api/v1/admin/coupons.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	coupons, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupons})
}

// Create handles POST /api/v1/admin/coupons.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var c Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	c.TenantID = tenantID
	created, err := h.service.Create(r.Context(), c)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /api/v1/admin/coupons/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Update handles PUT /api/v1/admin/coupons/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var c Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	c.TenantID = tenantID
	c.ID = chi.URLParam(r, "id")
	updated, err := h.service.Update(r.Context(), c)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/admin/coupons/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), tenantID, chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"ok": true}})
}
