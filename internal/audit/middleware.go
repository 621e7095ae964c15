package audit

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/obs"
)

// HTTPRecorder turns handled admin requests into audit entries. Recording
// happens after the response is written, so auditing never delays or fails a
// request; Record errors go to OnError.
type HTTPRecorder struct {
	Service   *Service
	OnError   func(error)
	ActorFunc func(*http.Request) Actor
}

// HTTPConfig overrides per-route pieces of the entry. Zero values are fine:
// the service derives action and resource from the matched route.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
	MetadataFunc    func(*http.Request, int) map[string]any
	ActorFunc       func(*http.Request) Actor
}

// Middleware returns a chi-compatible middleware recording one entry per
// request.
func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.Service == nil || !r.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}

			rec := obs.NewStatusRecorder(w)
			next.ServeHTTP(rec, req)

			actor := cfg.ActorFunc
			if actor == nil {
				actor = r.actor
			}

			resourceID := ""
			if cfg.ResourceIDParam != "" {
				resourceID = chi.URLParam(req, cfg.ResourceIDParam)
			}

			var metadata []byte
			if cfg.MetadataFunc != nil {
				if payload := cfg.MetadataFunc(req, rec.Status()); payload != nil {
					metadata, _ = json.Marshal(payload)
				}
			}

			err := r.Service.Record(req.Context(), actor(req), cfg.Action, cfg.ResourceType, resourceID, req, rec.Status(), metadata)
			if err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}

func (r HTTPRecorder) actor(req *http.Request) Actor {
	if r.ActorFunc != nil {
		return r.ActorFunc(req)
	}
	if req == nil {
		return Actor{Kind: ActorKindAnonymous}
	}
	if adminID, ok := common.AdminID(req.Context()); ok && adminID != "" {
		return Actor{Kind: ActorKindAdmin, AdminID: &adminID}
	}
	return Actor{Kind: ActorKindAnonymous}
}
