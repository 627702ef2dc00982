package governance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/aigov-api/internal/common"
)

// Handler exposes the dashboard and project browser.
type Handler struct {
	Svc *Service
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "GOVERNANCE_NOT_CONFIGURED", "governance service not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.Svc.Dashboard(r.Context()))
}

// Projects handles GET /api/v1/projects.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "GOVERNANCE_NOT_CONFIGURED", "governance service not configured", nil)
		return
	}
	params, err := h.Svc.ParseListParams(r.URL.Query())
	if err != nil {
		if !common.WriteAppError(w, err) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		}
		return
	}
	result := h.Svc.ListProjects(params)
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: result.Total},
	})
}

// Project handles GET /api/v1/projects/{id}.
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "GOVERNANCE_NOT_CONFIGURED", "governance service not configured", nil)
		return
	}
	view, err := h.Svc.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "project not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load project", nil)
		return
	}
	common.Data(w, http.StatusOK, view)
}
