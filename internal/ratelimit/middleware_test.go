package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(t *testing.T, max int) (http.Handler, *Handler) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "widget" },
			Window: time.Second,
			Max:    max,
		},
	}
	wrapped := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return wrapped, h
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	wrapped, _ := newLimitedHandler(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", nil)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMiddlewareFailsOpenOnRedisError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var reported error
	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "widget" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(err error) { reported = err },
	}
	wrapped := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/quote", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, reported)
}
