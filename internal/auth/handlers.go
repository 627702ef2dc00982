package auth

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/aigov-api/internal/common"
	"github.com/noah-isme/aigov-api/internal/obs"
)

// SessionCloser tears down per-session state when the viewer signs out.
type SessionCloser interface {
	Close(userID string) bool
}

// Handler exposes the sign-in, sign-out and profile endpoints.
type Handler struct {
	Service          *Service
	Sessions         SessionCloser
	AccessCookieName string
	CookieDomain     string
	CookieSecure     bool
	CookieSameSite   http.SameSite

	validate *validator.Validate
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) validator() *validator.Validate {
	if h.validate == nil {
		h.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return h.validate
}

// SignIn handles POST /api/v1/auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req signInRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator().Struct(req); err != nil {
		obs.RecordSignIn("invalid")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "a valid email and password are required", validationDetails(err))
		return
	}
	result, err := h.Service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.RecordSignIn("rejected")
		h.writeError(w, err)
		return
	}
	obs.RecordSignIn("success")
	h.setAccessCookie(w, result)
	common.Data(w, http.StatusOK, result)
}

// SignOut handles POST /api/v1/auth/signout. The viewer's cart ends with
// the session.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if userID, ok := common.UserID(r.Context()); ok && h.Sessions != nil {
		h.Sessions.Close(userID)
	}
	h.clearAccessCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := common.IdentityFrom(r.Context())
	if !ok || ident.ID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	if h.Service != nil && h.Service.Directory() != nil {
		if stored, found := h.Service.Directory().Lookup(ident.ID); found {
			ident = stored
		}
	}
	common.Data(w, http.StatusOK, ident)
}

// SignInPage handles GET /signin for browsers that are not signed in yet.
func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, map[string]any{
		"action": "/api/v1/auth/signin",
		"method": http.MethodPost,
		"fields": []string{"email", "password"},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.WriteAppError(w, err) {
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, result SignInResult) {
	if h.AccessCookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.AccessCookieName,
		Value:    result.AccessToken,
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}

func (h *Handler) clearAccessCookie(w http.ResponseWriter) {
	if h.AccessCookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.AccessCookieName,
		Value:    "",
		Domain:   h.CookieDomain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}

func validationDetails(err error) map[string]string {
	details := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return details
}
