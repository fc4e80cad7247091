package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, DefaultCatalogURL, cfg.Catalog.URL)
	require.Equal(t, 10, cfg.Catalog.PageSize)
	require.Equal(t, time.Duration(0), cfg.Catalog.Timeout)
	require.Equal(t, 500*time.Millisecond, cfg.Catalog.SearchDebounce)
	require.Equal(t, 2*time.Second, cfg.Scanner.Cooldown)
	require.Equal(t, "bolt", cfg.Storage.Backend)
	require.Equal(t, []string{"openid", "email", "profile"}, cfg.Google.Scopes)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, 30, cfg.RateLimit.Searches)
	require.Equal(t, 20, cfg.RateLimit.Lookups)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("SCAN_COOLDOWN", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_LOOKUPS", "5")

	cfg := Load()

	require.False(t, cfg.IsDevelopment())
	require.Equal(t, "redis", cfg.Storage.Backend)
	require.Equal(t, 750*time.Millisecond, cfg.Scanner.Cooldown)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 5, cfg.RateLimit.Lookups)
}
