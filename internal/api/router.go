package api

import (
	"context"
	"net/http"

	"github.com/alecgard/mentorsync/internal/metrics"
	"github.com/alecgard/mentorsync/internal/ratelimit"
	"github.com/alecgard/mentorsync/internal/report"
	"github.com/alecgard/mentorsync/internal/user"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// IdentityService is the subset of *user.Service the handlers use.
type IdentityService interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	GetUser(ctx context.Context, id int64) (*user.User, error)
	GetMentees(ctx context.Context, mentorID int64) ([]*user.User, error)
}

// ReportService is the subset of *report.Service the handlers use.
type ReportService interface {
	Create(ctx context.Context, menteeID int64, in report.Input) (*report.Report, error)
	LatestForMentee(ctx context.Context, menteeID int64) ([]*report.Report, error)
	ForMentor(ctx context.Context, mentorID int64) ([]*report.Report, error)
	Update(ctx context.Context, id int64, in report.Input) (*report.Report, error)
	Delete(ctx context.Context, id int64) error
}

// Pinger checks database connectivity. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router. Metrics, AuthLimiter
// and DB are optional.
type RouterDeps struct {
	Users          IdentityService
	Reports        ReportService
	DB             Pinger
	Metrics        *metrics.Metrics
	AuthLimiter    *ratelimit.Limiter
	AllowedOrigins []string
	Version        string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(slogRequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(chimw.StripSlashes)

	info := newInfoHandler(deps.DB, deps.Version)
	auth := newAuthHandler(deps.Users, deps.Metrics)
	users := newUsersHandler(deps.Users)
	reports := newReportsHandler(deps.Reports, deps.Metrics)

	r.Get("/", info.Root)
	r.Get("/health", info.Health)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Exposition())
		r.Get("/metrics/summary", deps.Metrics.SummaryHandler())
	}

	r.Route("/auth", func(ar chi.Router) {
		if deps.AuthLimiter != nil {
			ar.Use(ratelimit.Middleware(deps.AuthLimiter, func() {
				deps.Metrics.IncRateLimitRejection("auth")
			}))
		}
		ar.Post("/register", auth.Register)
		ar.Post("/login", auth.Login)
	})

	r.Route("/users", func(ur chi.Router) {
		ur.Get("/{id}", users.GetUser)
		ur.Get("/mentors/{id}/mentees", users.GetMentees)
	})

	r.Route("/reports", func(rr chi.Router) {
		rr.Post("/", reports.Create)
		rr.Get("/mentees/{id}/latest", reports.LatestForMentee)
		rr.Get("/mentors/{id}", reports.ForMentor)
		rr.Put("/{reportID}", reports.Update)
		rr.Delete("/{reportID}", reports.Delete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
