package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aigov-api/internal/cache"
	"github.com/noah-isme/aigov-api/internal/catalog"
)

type productsResponse struct {
	Data       []catalog.ProductView `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type productDetailResponse struct {
	Data catalog.ProductView `json:"data"`
}

func newTestHandler(t *testing.T, c *cache.JSON) *catalog.Handler {
	t.Helper()
	provider, err := catalog.LoadDefault()
	require.NoError(t, err)
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Provider:     provider,
		Cache:        c,
		DefaultLimit: 20,
		MaxLimit:     50,
	})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func TestCatalogHandlers(t *testing.T) {
	handler := newTestHandler(t, nil)

	t.Run("products list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=toolkits&limit=2", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "3", rec.Header().Get("X-Total-Count"))

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		require.Equal(t, "Governance Policy Toolkit", resp.Data[0].Name)
		require.Equal(t, "299.99", resp.Data[0].PriceDisplay)
		require.Equal(t, 2, resp.Pagination.PerPage)
		require.Equal(t, 3, resp.Pagination.TotalItems)
	})

	t.Run("search", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=AUDIT", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "3", resp.Data[0].ID)
	})

	t.Run("invalid page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=0", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("product detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, withID(httptest.NewRequest(http.MethodGet, "/api/v1/products/2", nil), "2"))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp productDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Model Risk Assessment Workbook", resp.Data.Name)
		require.EqualValues(t, 19999, resp.Data.UnitPrice)
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, withID(httptest.NewRequest(http.MethodGet, "/api/v1/products/zzz", nil), "zzz"))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("categories", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"data":["services","toolkits","training"]}`, rec.Body.String())
	})
}

func TestProductsListIsCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler := newTestHandler(t, cache.NewJSON(client, "catalog", time.Minute))
	rec := httptest.NewRecorder()
	handler.Products(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, mr.Keys())
}

func withID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
