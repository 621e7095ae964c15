package form

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// Handler exposes admin form endpoints and the public payload endpoint.
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

// Public handles GET /api/v1/forms/{slug}.
func (h *Handler) Public(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	payload, err := h.service.Public(r.Context(), tenantID, chi.URLParam(r, "slug"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": payload})
}

// List handles GET /api/v1/admin/forms.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	forms, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": forms})
}

// Create handles POST /api/v1/admin/forms.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var f Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	f.TenantID = tenantID
	created, err := h.service.Create(r.Context(), f)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /api/v1/admin/forms/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	f, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": f})
}

// Update handles PUT /api/v1/admin/forms/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var f Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	f.TenantID = tenantID
	f.ID = chi.URLParam(r, "id")
	updated, err := h.service.Update(r.Context(), f)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/admin/forms/{id}.
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
