package api

import (
	"log/slog"
	"net/http"

	"github.com/alecgard/mentorsync/internal/ratelimit"
)

// auditLog emits a structured audit entry for a state-changing or
// credential-checking request.
func auditLog(r *http.Request, action, resourceType string, resourceID any, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", ratelimit.ClientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}
	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
