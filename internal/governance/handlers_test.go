package governance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aigov-api/internal/cache"
	"github.com/noah-isme/aigov-api/internal/governance"
	"github.com/noah-isme/aigov-api/internal/lock"
)

type projectsResponse struct {
	Data []governance.ProjectView `json:"data"`
}

func newService(t *testing.T, c *cache.JSON) *governance.Service {
	t.Helper()
	projects, err := governance.LoadDefault()
	require.NoError(t, err)
	return &governance.Service{Projects: projects, Cache: c, DefaultLimit: 10, MaxLimit: 20}
}

func TestProjectHandlers(t *testing.T) {
	h := &governance.Handler{Svc: newService(t, nil)}

	rec := httptest.NewRecorder()
	h.Projects(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?status=review", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	var resp projectsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "claims-triage", resp.Data[0].ID)
	require.Equal(t, 75.0, resp.Data[0].CompletionRate)
	require.Equal(t, "64000.00", resp.Data[0].InvestmentDisplay)

	rec = httptest.NewRecorder()
	h.Projects(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?q=lending", nil))
	resp = projectsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "underwriting-assistant", resp.Data[0].ID)

	rec = httptest.NewRecorder()
	h.Projects(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?page=2&limit=4", nil))
	resp = projectsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)

	rec = httptest.NewRecorder()
	h.Projects(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?status=archived", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Project(rec, withID(httptest.NewRequest(http.MethodGet, "/api/v1/projects/fraud-detector", nil), "fraud-detector"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"roi":65`)

	rec = httptest.NewRecorder()
	h.Project(rec, withID(httptest.NewRequest(http.MethodGet, "/api/v1/projects/none", nil), "none"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardIsCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := newService(t, cache.NewJSON(client, "gov", time.Minute))
	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return first }
	h := &governance.Handler{Svc: svc}

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, mr.Exists("gov:dashboard"))

	svc.Now = func() time.Time { return first.Add(time.Hour) }
	summary := svc.Dashboard(context.Background())
	require.True(t, summary.GeneratedAt.Equal(first))

	mr.FastForward(2 * time.Minute)
	summary = svc.Dashboard(context.Background())
	require.True(t, summary.GeneratedAt.Equal(first.Add(time.Hour)))
}

func withID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestDashboardRebuildUnderLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := newService(t, cache.NewJSON(client, "gov", time.Minute))
	svc.Lock = &lock.Locker{R: client, Prefix: "gov", RetryBackoff: 5 * time.Millisecond}
	generated := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return generated }

	var wg sync.WaitGroup
	results := make([]governance.Summary, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Dashboard(context.Background())
		}(i)
	}
	wg.Wait()

	for _, summary := range results {
		require.Equal(t, 6, summary.TotalProjects)
		require.True(t, summary.GeneratedAt.Equal(generated))
	}
	require.True(t, mr.Exists("gov:dashboard"))
	require.False(t, mr.Exists("gov:lock:dashboard"))
}
