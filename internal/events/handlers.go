package events

import (
	"net/http"
	"slices"
	"strings"

	"github.com/noah-isme/aigov-api/internal/common"
)

// Handler exposes the viewer's recent activity from the event log.
type Handler struct {
	Log *MemoryLog
}

// Activity handles GET /api/v1/activity?topic=&page=&limit=.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if h.Log == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "event log not configured", nil)
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic != "" && !slices.Contains(DefaultTopics(), topic) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown topic", map[string]any{"topics": DefaultTopics()})
		return
	}

	matched := h.Log.ForAggregate(userID)
	if topic != "" {
		matched = slices.DeleteFunc(matched, func(ev Event) bool { return ev.Topic != topic })
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	start, end := common.PageBounds(page, perPage, len(matched))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       matched[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(matched)},
	})
}
