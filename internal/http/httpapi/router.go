package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries the transport concerns the router wires around the app.
type Options struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	CountryLookup      middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.I18N("it", opts.CountryLookup),
		middleware.Logger(app.Logger),
		middleware.CORS(opts.CORSAllowedOrigins),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
	)

	// Public surface.
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats/summary", app.StatsSummary)

	// Everything else requires a session token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/v1/projects", func(r chi.Router) {
			r.Post("/", app.ProjectsCreate)
			r.Get("/{id}", app.ProjectsGet)
			r.Post("/{id}/cancel", app.ProjectsCancel)
			r.Get("/{id}/donations", app.DonationsList)
			r.Post("/{id}/donations", app.DonationsCreate)
			r.Get("/{id}/expenses", app.ExpensesList)
			r.Post("/{id}/expenses", app.ExpensesCreate)
		})

		r.Route("/v1/expenses", func(r chi.Router) {
			r.Get("/{id}/tally", app.ExpenseTally)
			r.Post("/{id}/votes", app.ExpenseVote)
			r.Post("/{id}/execute", app.ExpenseExecute)
		})
	})

	return r
}
