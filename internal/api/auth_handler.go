package api

import (
	"errors"
	"net/http"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/alecgard/mentorsync/internal/metrics"
	"github.com/alecgard/mentorsync/internal/user"
)

// authHandler groups registration and login handlers.
type authHandler struct {
	users   IdentityService
	metrics *metrics.Metrics
}

func newAuthHandler(users IdentityService, m *metrics.Metrics) *authHandler {
	return &authHandler{users: users, metrics: m}
}

// Register handles POST /auth/register.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	u, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.metrics.IncRegistration(string(u.Role))
	auditLog(r, "register", "user", u.ID, "user_type", u.Role)
	writeJSON(w, http.StatusOK, u)
}

// Login handles POST /auth/login. It is a one-shot credential check that
// returns the profile; no session is created.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			h.metrics.IncLogin("failure")
			auditLog(r, "login_failed", "user", nil, "reason", apperr.Message(err))
		}
		writeServiceError(w, r, err)
		return
	}

	h.metrics.IncLogin("success")
	auditLog(r, "login", "user", u.ID)
	writeJSON(w, http.StatusOK, u)
}
