package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresCoreVariables(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
	})
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost/boka",
		"REDIS_URL":             "redis://localhost:6379",
		"JWT_SECRET":            "secret",
		"PORT":                  "",
		"TENANT_HEADER":         "",
		"FORM_CACHE_TTL":        "",
		"QUOTE_RATE_PER_MINUTE": "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "X-Tenant-ID", cfg.TenantHeader)
	require.Equal(t, 5*time.Minute, cfg.FormCacheTTL)
	require.Equal(t, 60, cfg.QuoteRatePerMinute)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost/boka",
		"REDIS_URL":             "redis://localhost:6379",
		"JWT_SECRET":            "secret",
		"PORT":                  "9000",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example",
		"QUOTE_RATE_PER_MINUTE": "120",
		"QUOTE_RATE_BURST":      "not-a-number",
		"NOTIFY_EMAIL_ENABLED":  "true",
	})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 120, cfg.QuoteRatePerMinute)
	require.Equal(t, 20, cfg.QuoteRateBurst)
	require.True(t, cfg.NotifyEmailEnabled)
}
