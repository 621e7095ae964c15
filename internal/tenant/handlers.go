package tenant

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backend-boka/internal/common"
)

// Handler exposes company settings endpoints for the admin area.
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

// Company handles GET /api/v1/admin/company.
func (h *Handler) Company(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tenant service not configured", nil)
		return
	}
	t, err := h.service.Company(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": t})
}

// UpdateCompany handles PUT /api/v1/admin/company.
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tenant service not configured", nil)
		return
	}
	var update SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	t, err := h.service.UpdateCompany(r.Context(), update)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": t})
}
