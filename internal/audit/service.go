package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/obs"
	"github.com/noah-isme/backend-boka/internal/tenant"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindAdmin represents an authenticated tenant administrator.
	ActorKindAdmin ActorKind = "admin"
	// ActorKindSystem represents internal automated actions.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous represents unauthenticated actors.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes the entity performing the action.
type Actor struct {
	Kind    ActorKind
	AdminID *string
}

// Entry is a single audit log record.
type Entry struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	ActorKind    string          `json:"actor_kind"`
	ActorAdminID *string         `json:"actor_admin_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Route        *string         `json:"route,omitempty"`
	Status       int             `json:"status"`
	IP           *string         `json:"ip,omitempty"`
	UserAgent    *string         `json:"user_agent,omitempty"`
	RequestID    *string         `json:"request_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, entry Entry) (Entry, error)
	ListAuditLogs(ctx context.Context, tenantID string, limit, offset int) ([]Entry, error)
}

// Service persists audit logs for critical application flows.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

// Record persists an audit log entry when auditing is enabled.
func (s Service) Record(ctx context.Context, actor Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 {
		if rand.Float64() > s.SamplingRate {
			return nil
		}
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	method := req.Method
	route := obs.RoutePatternFromContext(req.Context())
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	tenantID, _ := tenant.From(ctx)

	finalStatus := status
	if finalStatus == 0 {
		finalStatus = http.StatusOK
	}

	_, err := s.Store.InsertAuditLog(ctx, Entry{
		TenantID:     tenantID,
		ActorKind:    string(normalizeActorKind(actor.Kind)),
		ActorAdminID: sanitizeString(actor.AdminID),
		Action:       buildAction(action, method, route),
		ResourceType: buildResource(resourceType, route),
		ResourceID:   pointerOf(resourceID),
		Method:       method,
		Path:         req.URL.Path,
		Route:        pointerOf(route),
		Status:       finalStatus,
		IP:           pointerOf(common.ClientIP(req)),
		UserAgent:    pointerOf(req.Header.Get("User-Agent")),
		RequestID:    pointerOf(req.Header.Get("X-Request-ID")),
		Metadata:     toJSONB(metadata, req.URL.RawQuery),
	})
	return err
}

func buildAction(action, method, route string) string {
	trimmed := strings.TrimSpace(action)
	if trimmed != "" {
		return trimmed
	}
	base := strings.ToUpper(strings.TrimSpace(method))
	target := route
	if target == "" {
		target = "/"
	}
	return base + " " + target
}

func buildResource(resourceType, route string) string {
	trimmed := strings.TrimSpace(resourceType)
	if trimmed != "" {
		return trimmed
	}
	route = strings.Trim(route, " ")
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		return strings.Join(segments[2:], ".")
	}
	return strings.ReplaceAll(strings.Trim(route, "/"), "/", ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindAdmin, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func sanitizeString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func pointerOf(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toJSONB(metadata []byte, query string) []byte {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	payload := map[string]string{"query": query}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}
