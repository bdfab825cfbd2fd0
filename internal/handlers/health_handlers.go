package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// HealthHandler serves the liveness and version endpoints.
type HealthHandler struct {
	app    config.AppSettings
	checks map[string]HealthChecker
}

// NewHealthHandler creates a new HealthHandler. Every named check must pass
// for the service to report healthy.
func NewHealthHandler(app config.AppSettings, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{
		app:    app,
		checks: checks,
	}
}

// Health reports whether the API and its dependencies are reachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DBHealthCheckTimeout)
	defer cancel()

	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			utils.ErrorFromAppError(w, utils.NewServiceUnavailableError(err))
			return
		}
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Version returns the application name, version and environment.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"name":        h.app.Name,
		"version":     h.app.Version,
		"environment": h.app.Environment,
	})
}
