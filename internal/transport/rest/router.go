package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/EABruton/waitlist/internal/metrics"
)

type RouterDeps struct {
	Handler  *Handler
	Sessions *Sessions
	Health   http.Handler

	RateLimitEnabled bool
	RateLimitMax     int
	RateLimitWindow  time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Sessions == nil {
		panic("rest.NewRouter: nil sessions")
	}
	if d.Health == nil {
		panic("rest.NewRouter: nil health")
	}

	r := chi.NewRouter()

	// Request ID + structured access log
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(HTTPLogger)

	// Panic recovery
	r.Use(middleware.Recoverer)

	// Cross-cutting
	r.Use(SecurityHeaders)

	r.Method(http.MethodGet, "/healthz", d.Health)
	r.Method(http.MethodGet, "/metrics", metrics.MetricsHandler())

	r.Get("/", d.Handler.Root)

	r.Route("/party", func(r chi.Router) {
		r.Use(d.Sessions.SweepLapsedSeat)

		r.Get("/new", d.Handler.NewPartyPage)
		r.Get("/", d.Handler.StatusPage)
		r.Get("/events", d.Handler.Events)

		// Mutations are rate limited; the event stream is not, or
		// reconnecting clients would lock themselves out.
		r.Group(func(r chi.Router) {
			if d.RateLimitEnabled {
				r.Use(httprate.LimitByIP(d.RateLimitMax, d.RateLimitWindow))
			}
			r.Post("/", d.Handler.Join)
			r.Delete("/", d.Handler.Leave)
			r.Patch("/check-in", d.Handler.CheckIn)
		})
	})

	return r
}
