package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/EABruton/waitlist/internal/logger"
	"github.com/EABruton/waitlist/internal/transport/rest/response"
)

type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

// Health reports readiness. All checks must pass; the first failing one
// names itself in the body.
func Health(checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Logger.Error().Err(err).Str("check", c.Name).Msg("health check failed")
				response.JSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":  "unavailable",
					"failing": c.Name,
				})
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
