package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

type stubStore struct {
	lastInsert Entry
	called     bool
}

func (s *stubStore) InsertAuditLog(_ context.Context, entry Entry) (Entry, error) {
	s.called = true
	s.lastInsert = entry
	return entry, nil
}

func (s *stubStore) ListAuditLogs(context.Context, string, int, int) ([]Entry, error) {
	return nil, nil
}

func TestServiceRecord(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true, SamplingRate: 1}
	adminID := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "https://api.test/api/v1/admin/coupons?status=active", nil)
	req.Header.Set("User-Agent", "tester")
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.2:54321"
	ctx := common.WithAdminID(req.Context(), adminID)
	ctx = tenant.WithTenant(ctx, "clean-co")
	ctx = obs.WithRoutePattern(ctx, "/api/v1/admin/coupons")
	req = req.WithContext(ctx)

	if err := svc.Record(req.Context(), Actor{Kind: ActorKindAdmin, AdminID: &adminID}, "", "", "", req, http.StatusCreated, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !store.called {
		t.Fatal("expected store to be called")
	}
	if store.lastInsert.TenantID != "clean-co" {
		t.Fatalf("unexpected tenant: %s", store.lastInsert.TenantID)
	}
	if store.lastInsert.ActorKind != string(ActorKindAdmin) {
		t.Fatalf("unexpected actor kind: %s", store.lastInsert.ActorKind)
	}
	if store.lastInsert.ActorAdminID == nil || *store.lastInsert.ActorAdminID != adminID {
		t.Fatalf("unexpected stored admin id: %v", store.lastInsert.ActorAdminID)
	}
	if store.lastInsert.Action != "POST /api/v1/admin/coupons" {
		t.Fatalf("unexpected action: %s", store.lastInsert.Action)
	}
	if store.lastInsert.ResourceType != "admin.coupons" {
		t.Fatalf("unexpected resource type: %s", store.lastInsert.ResourceType)
	}
	if store.lastInsert.IP == nil || *store.lastInsert.IP != "10.0.0.2" {
		t.Fatalf("expected ip capture, got %v", store.lastInsert.IP)
	}
	if store.lastInsert.RequestID == nil || *store.lastInsert.RequestID != "req-123" {
		t.Fatalf("expected request id, got %v", store.lastInsert.RequestID)
	}
	if len(store.lastInsert.Metadata) == 0 {
		t.Fatal("expected metadata to be set")
	}
	var meta map[string]string
	if err := json.Unmarshal(store.lastInsert.Metadata, &meta); err != nil {
		t.Fatalf("metadata json: %v", err)
	}
	if meta["query"] != "status=active" {
		t.Fatalf("unexpected metadata query: %s", meta["query"])
	}
}

func TestServiceRecordDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := svc.Record(req.Context(), Actor{}, "", "", "", req, http.StatusOK, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if store.called {
		t.Fatal("expected no insert when disabled")
	}
}
