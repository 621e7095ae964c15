package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Config names the limited resource: how to key it, the window length, and
// how many requests fit in one window.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler is the HTTP middleware wrapper around a Limiter. Redis being down
// must never take the API down with it, so limiter errors are reported via
// OnError and the request goes through.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware enforces the configured limit and sets the X-RateLimit response
// headers. Rejected requests get 429 with Retry-After.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, reset, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		limit := h.Config.Max
		if limit < 0 {
			limit = 0
		}
		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			hdr.Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
