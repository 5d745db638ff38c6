package api

import (
	"errors"
	"net/http"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/alecgard/mentorsync/internal/metrics"
	"github.com/alecgard/mentorsync/internal/report"
)

// reportRequest is the body of POST /reports and PUT /reports/{reportID}.
// Every field must be present; text fields may be empty strings.
type reportRequest struct {
	WeekNumber      *int    `json:"week_number"`
	Year            *int    `json:"year"`
	Accomplishments *string `json:"accomplishments"`
	Blockers        *string `json:"blockers_concerns_comments"`
	Aspirations     *string `json:"aspirations"`
}

func (req reportRequest) input() (report.Input, error) {
	switch {
	case req.WeekNumber == nil:
		return report.Input{}, apperr.Validation("week_number is required")
	case req.Year == nil:
		return report.Input{}, apperr.Validation("year is required")
	case req.Accomplishments == nil:
		return report.Input{}, apperr.Validation("accomplishments is required")
	case req.Blockers == nil:
		return report.Input{}, apperr.Validation("blockers_concerns_comments is required")
	case req.Aspirations == nil:
		return report.Input{}, apperr.Validation("aspirations is required")
	}
	return report.Input{
		WeekNumber:      *req.WeekNumber,
		Year:            *req.Year,
		Accomplishments: *req.Accomplishments,
		Blockers:        *req.Blockers,
		Aspirations:     *req.Aspirations,
	}, nil
}

type reportsHandler struct {
	reports ReportService
	metrics *metrics.Metrics
}

func newReportsHandler(reports ReportService, m *metrics.Metrics) *reportsHandler {
	return &reportsHandler{reports: reports, metrics: m}
}

func (h *reportsHandler) decode(w http.ResponseWriter, r *http.Request) (report.Input, bool) {
	var req reportRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return report.Input{}, false
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(w, r, err)
		return report.Input{}, false
	}
	return in, true
}

// record counts a report write by outcome.
func (h *reportsHandler) record(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrConflict):
		outcome = "conflict"
	case errors.Is(err, apperr.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	h.metrics.IncReportWrite(op, outcome)
}

// Create handles POST /reports?mentee_id={id}.
func (h *reportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	menteeID, err := menteeIDParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	rep, err := h.reports.Create(r.Context(), menteeID, in)
	h.record("create", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "create", "report", rep.ID, "mentee_id", menteeID, "week_number", rep.WeekNumber, "year", rep.Year)
	writeJSON(w, http.StatusOK, rep)
}

// LatestForMentee handles GET /reports/mentees/{id}/latest.
func (h *reportsHandler) LatestForMentee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	reports, err := h.reports.LatestForMentee(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// ForMentor handles GET /reports/mentors/{id}.
func (h *reportsHandler) ForMentor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	reports, err := h.reports.ForMentor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// Update handles PUT /reports/{reportID}.
func (h *reportsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "reportID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	rep, err := h.reports.Update(r.Context(), id, in)
	h.record("update", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "update", "report", rep.ID, "week_number", rep.WeekNumber, "year", rep.Year)
	writeJSON(w, http.StatusOK, rep)
}

// Delete handles DELETE /reports/{reportID}.
func (h *reportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "reportID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	err = h.reports.Delete(r.Context(), id)
	h.record("delete", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "delete", "report", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully"})
}
