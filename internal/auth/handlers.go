package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// TenantResolver loads the tenant addressed by the current request.
type TenantResolver interface {
	Resolve(ctx context.Context) (tenant.Tenant, error)
}

// Handler exposes admin authentication endpoints.
type Handler struct {
	service *Service
	tenants TenantResolver
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	Tenants TenantResolver
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, tenants: cfg.Tenants}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles POST /api/v1/admin/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.tenants == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	t, err := h.tenants.Resolve(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), t.ID, req.Email, req.Password, r.UserAgent(), common.ClientIP(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Refresh handles POST /api/v1/admin/auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Logout handles POST /api/v1/admin/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"ok": true}})
}

// Me handles GET /api/v1/admin/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	adminID, _ := common.AdminID(r.Context())
	admin, err := h.service.Me(r.Context(), adminID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": admin})
}
