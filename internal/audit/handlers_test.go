package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-boka/internal/tenant"
)

type listStore struct {
	stubStore
	receivedTenant string
	receivedLimit  int
	receivedOffset int
}

func (l *listStore) ListAuditLogs(_ context.Context, tenantID string, limit, offset int) ([]Entry, error) {
	l.receivedTenant = tenantID
	l.receivedLimit = limit
	l.receivedOffset = offset
	return []Entry{{Action: "POST /admin/services", Method: "POST"}}, nil
}

func TestListPassesTenantAndPagination(t *testing.T) {
	store := &listStore{}
	h := Handler{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/admin/audit-logs?limit=25&offset=10", nil)
	req = req.WithContext(tenant.WithTenant(req.Context(), "clean-co"))
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "clean-co", store.receivedTenant)
	require.Equal(t, 25, store.receivedLimit)
	require.Equal(t, 10, store.receivedOffset)

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, "POST /admin/services", payload.Data[0]["action"])
}

func TestListClampsOutOfRangeParams(t *testing.T) {
	store := &listStore{}
	h := Handler{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/admin/audit-logs?limit=9999&offset=-3", nil)
	req = req.WithContext(tenant.WithTenant(req.Context(), "clean-co"))
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 50, store.receivedLimit)
	require.Equal(t, 0, store.receivedOffset)
}

func TestListRequiresTenant(t *testing.T) {
	h := Handler{Store: &listStore{}}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/admin/audit-logs", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
