package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-boka/internal/health"
)

func TestReadinessGateClosesOnShutdown(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })

	h := health.Handler{Checker: stubChecker{}, DBTimeout: 10 * time.Millisecond, RedisTimeout: 10 * time.Millisecond}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	rr := httptest.NewRecorder()
	h.Ready(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	health.SetReady(false)

	rr = httptest.NewRecorder()
	h.Ready(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
