package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Checker probes the backing dependencies.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// ready gates the readiness endpoint independently of dependency probes.
// Shutdown flips it to false so the load balancer drains the instance before
// in-flight requests are cut off.
var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles the readiness gate.
func SetReady(ok bool) { ready.Store(ok) }

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live always answers ok while the process runs.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready answers 200 only when the gate is open and both dependencies respond.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	status := map[string]string{"db": "ok", "redis": "ok"}
	if err := h.Checker.PingDB(ctx, orDefault(h.DBTimeout, 500*time.Millisecond)); err != nil {
		status["db"] = err.Error()
	}
	if err := h.Checker.PingRedis(ctx, orDefault(h.RedisTimeout, 300*time.Millisecond)); err != nil {
		status["redis"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if status["db"] != "ok" || status["redis"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
