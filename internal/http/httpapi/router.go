package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"artistry/internal/http/handlers"
	"artistry/internal/middleware"
)

// Options tunes the router middleware.
type Options struct {
	CORSAllowedOrigins []string
	// RateLimitPerMin applies per client IP to the generation routes.
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/rooms", func(r chi.Router) {
		r.With(limited).Post("/", app.SubmitRoom)
		r.Get("/{job_id}", app.RoomStatus)
		r.Get("/{job_id}/passes.zip", app.RoomPasses)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/collect-preferences", app.CollectPreferences)
		r.Get("/preferences/{session_id}", app.GetPreferences)
	})

	r.With(limited).Post("/workflow/enhanced", app.EnhancedWorkflow)

	r.Route("/advise", func(r chi.Router) {
		r.Post("/reason-upgrades", app.ReasonUpgrades)
		r.Post("/refine-budget", app.RefineBudget)
	})

	r.Route("/generate", func(r chi.Router) {
		r.Use(limited)
		r.Post("/inpaint_multi", app.InpaintMulti)
		r.Post("/budget-aware", app.BudgetAwareGenerate)
	})

	return r
}
