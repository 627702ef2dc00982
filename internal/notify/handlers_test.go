package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aigov-api/internal/common"
	"github.com/noah-isme/aigov-api/internal/notify"
)

type listResponse struct {
	Data []notify.Notification `json:"data"`
	Meta struct {
		Unread int `json:"unread"`
	} `json:"meta"`
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(common.WithUserID(req.Context(), userID))
}

func withID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestNotificationHandlers(t *testing.T) {
	feed, _ := newFeed(t)
	h := &notify.Handler{Feed: feed}

	rec := httptest.NewRecorder()
	h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil), "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 4)
	require.Equal(t, 3, resp.Meta.Unread)

	target := resp.Data[0].ID.String()
	rec = httptest.NewRecorder()
	h.MarkRead(rec, asUser(withID(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+target+"/read", nil), target), "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread=true", nil), "u1"))
	resp = listResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, 2, resp.Meta.Unread)

	rec = httptest.NewRecorder()
	h.MarkAllRead(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil), "u1"))
	require.JSONEq(t, `{"data":{"updated":2}}`, rec.Body.String())
}

func TestNotificationHandlerErrors(t *testing.T) {
	feed, _ := newFeed(t)
	h := &notify.Handler{Feed: feed}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread=maybe", nil), "u1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.MarkRead(rec, asUser(withID(httptest.NewRequest(http.MethodPost, "/x", nil), "not-a-uuid"), "u1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	missing := "9f1c7a52-5d0e-4d43-9d8f-1e2b3c4d5e6f"
	rec = httptest.NewRecorder()
	h.MarkRead(rec, asUser(withID(httptest.NewRequest(http.MethodPost, "/x", nil), missing), "u1"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
