package security

import (
	"net/http"
	"strconv"
)

// Headers sets the baseline security response headers. HSTS is only emitted
// on TLS connections, otherwise a misconfigured proxy could lock browsers out
// of the plain-HTTP dev setup.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Middleware attaches the headers to every response when enabled.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enable {
			next.ServeHTTP(w, r)
			return
		}
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Referrer-Policy", "no-referrer")
		hdr.Set("Permissions-Policy", "geolocation=(), microphone=()")
		if h.EnableHSTS && r.TLS != nil {
			hdr.Set("Strict-Transport-Security", h.hstsValue())
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hstsValue() string {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 31536000
	}
	v := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}
