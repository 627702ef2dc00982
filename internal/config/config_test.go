package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIS_URL":             "redis://localhost:6379/0",
		"JWT_SECRET":            "test-secret",
		"APP_ENV":               "",
		"PORT":                  "",
		"CATALOG_DEFAULT_LIMIT": "",
		"CATALOG_MAX_LIMIT":     "",
		"CART_IDLE_TTL":         "",
		"API_RATE_LIMIT":        "",
		"OBS_ENABLE_PPROF":      "",
		"COOKIE_SAMESITE":       "",
		"CURRENCY_CODE":         "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 20, cfg.CatalogDefaultLimit)
	require.Equal(t, 100, cfg.CatalogMaxLimit)
	require.Equal(t, 24*time.Hour, cfg.CartIdleTTL)
	require.Equal(t, "300-M", cfg.APIRateLimit)
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"
	env["PORT"] = ":9090"
	env["CART_IDLE_TTL"] = "90m"
	env["CURRENCY_CODE"] = "eur"
	env["COOKIE_SAMESITE"] = "strict"
	env["CATALOG_DEFAULT_LIMIT"] = "5"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 90*time.Minute, cfg.CartIdleTTL)
	require.Equal(t, "EUR", cfg.CurrencyCode)
	require.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	require.Equal(t, 5, cfg.CatalogDefaultLimit)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]func(map[string]string){
		"missing redis":       func(e map[string]string) { e["REDIS_URL"] = "" },
		"missing secret":      func(e map[string]string) { e["JWT_SECRET"] = "" },
		"limit above max":     func(e map[string]string) { e["CATALOG_DEFAULT_LIMIT"] = "500" },
		"pprof without creds": func(e map[string]string) { e["OBS_ENABLE_PPROF"] = "true" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			mutate(env)
			_, err := LoadForTests(env)
			require.Error(t, err)
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	require.Equal(t, []string{"https://a.dev", "https://b.dev"}, splitAndTrim(" https://a.dev, ,https://b.dev "))
	require.Nil(t, splitAndTrim(""))
}
