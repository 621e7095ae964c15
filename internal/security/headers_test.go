package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadersSetOnTLSRequest(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "https://boka.example", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	got := rr.Result().Header
	require.Equal(t, "nosniff", got.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", got.Get("X-Frame-Options"))
	require.Equal(t, "max-age=31536000; includeSubDomains", got.Get("Strict-Transport-Security"))
}

func TestHeadersSkipHSTSWithoutTLS(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true}
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://boka.example", nil))

	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersDisabled(t *testing.T) {
	handler := Headers{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://boka.example", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
