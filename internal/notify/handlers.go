package notify

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/aigov-api/internal/common"
)

// Handler exposes the viewer's notification feed.
type Handler struct {
	Feed *Feed
}

// List handles GET /api/v1/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.viewer(w, r)
	if !ok {
		return
	}
	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unread must be a boolean", map[string]string{"field": "unread"})
			return
		}
		unreadOnly = v
	}
	items, unread := h.Feed.List(userID, unreadOnly)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]int{"unread": unread},
	})
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.viewer(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid notification id", nil)
		return
	}
	n, err := h.Feed.MarkRead(userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "notification not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to update notification", nil)
		return
	}
	common.Data(w, http.StatusOK, n)
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.viewer(w, r)
	if !ok {
		return
	}
	common.Data(w, http.StatusOK, map[string]int{"updated": h.Feed.MarkAllRead(userID)})
}

func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h == nil || h.Feed == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "notification feed unavailable", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}
