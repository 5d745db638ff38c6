package api

import "net/http"

type usersHandler struct {
	users IdentityService
}

func newUsersHandler(users IdentityService) *usersHandler {
	return &usersHandler{users: users}
}

// GetUser handles GET /users/{id}.
func (h *usersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GetMentees handles GET /users/mentors/{id}/mentees.
func (h *usersHandler) GetMentees(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	mentees, err := h.users.GetMentees(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mentees)
}
