package api

import (
	"net/http"
	"strconv"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/go-chi/chi/v5"
)

// parseID reads a positive integer id from the named URL parameter.
func parseID(r *http.Request, name string) (int64, error) {
	return positiveInt(chi.URLParam(r, name), name)
}

// menteeIDParam reads the mentee id from the query string. Both the
// snake_case and camelCase spellings are accepted.
func menteeIDParam(r *http.Request) (int64, error) {
	q := r.URL.Query()
	raw := q.Get("mentee_id")
	if raw == "" {
		raw = q.Get("menteeId")
	}
	if raw == "" {
		return 0, apperr.Validation("mentee_id query parameter is required")
	}
	return positiveInt(raw, "mentee_id")
}

func positiveInt(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation(name + " must be a positive integer")
	}
	return id, nil
}
