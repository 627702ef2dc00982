package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/noah-isme/aigov-api/internal/config"
	"github.com/noah-isme/aigov-api/internal/ratelimit"
)

type apiFixture struct {
	t      *testing.T
	app    *deps
	router http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":             "redis://" + mr.Addr(),
		"JWT_SECRET":            "router-test-secret",
		"APP_ENV":               "test",
		"OBS_ENABLE_PROMETHEUS": "false",
		"OBS_ENABLE_PPROF":      "false",
		"SIGNIN_RATE_LIMIT":     "3",
	})
	require.NoError(t, err)

	app, err := buildDeps(cfg, client, zerolog.Nop())
	require.NoError(t, err)
	app.apiLimiter, err = ratelimit.NewAPI(memory.NewStore(), "1000-M")
	require.NoError(t, err)

	return &apiFixture{t: t, app: app, router: newRouter(cfg, app, false, zerolog.Nop())}
}

func (f *apiFixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) signIn(email, password string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/auth/signin", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(f.t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func TestRouterCartSession(t *testing.T) {
	f := newAPIFixture(t)

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/ready", "", "").Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/products", "", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/cart", "", "").Code)

	token := f.signIn("ada@aigov.dev", "governance-demo")

	rec := f.do(http.MethodPost, "/api/v1/cart/items", token, `{"productId":"1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(http.MethodPost, "/api/v1/cart/items", token, `{"productId":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodPost, "/api/v1/cart/items/1/increment", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalDisplay":"599.98"`)
	require.Contains(t, rec.Body.String(), `"lineCount":2`)

	rec = f.do(http.MethodGet, "/api/v1/activity", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_items":2`)

	rec = f.do(http.MethodGet, "/api/v1/notifications", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Added to cart")

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/dashboard", token, "").Code)
	require.Equal(t, 1, f.app.carts.Len())

	rec = f.do(http.MethodPost, "/api/v1/auth/signout", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, f.app.carts.Len())
}

func TestRouterSignInRateLimit(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"email":"ada@aigov.dev","password":"wrong-password"}`
	for i := 0; i < 3; i++ {
		rec := f.do(http.MethodPost, "/api/v1/auth/signin", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := f.do(http.MethodPost, "/api/v1/auth/signin", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRouterSecurityHeaders(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRouterPageRedirects(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/signin", rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/signin", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"action":"/api/v1/auth/signin"`)

	token := f.signIn("ada@aigov.dev", "governance-demo")
	rec = f.do(http.MethodGet, "/signin", token, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/", token, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/api/v1/dashboard", rec.Header().Get("Location"))
}
