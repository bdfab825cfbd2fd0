package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/middleware"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// SetupRoutes configures the routes for the application.
//
// Every request passes the base chain: request ID, panic recovery, latency
// metrics, security headers, CORS, optional JWT authentication, identity
// resolution and request logging. On top of that:
//   - Health, version and CSRF token endpoints are rate limited as reads
//   - Form endpoints run the full security gateway
//   - Admin endpoints require an authenticated admin
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	jwtProvider := auth.NewJWTAuthProvider(s.Security.JWT)

	// Base middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(s.Metrics.Middleware)
	r.Use(middleware.SecurityHeaders(s.Config.App.IsProduction()))
	r.Use(middleware.CORS(s.Config.CORS))
	r.Use(auth.OptionalAuth(jwtProvider))
	r.Use(s.Security.Identity.Middleware)
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	deps := s.gatewayDeps()
	readLimit := deps.RateLimit(constants.RouteClassRead)

	// Public read endpoints
	r.Group(func(r chi.Router) {
		r.Use(readLimit)

		r.Get(constants.HealthPath, s.Handlers.HealthHandler.Health)
		r.Get(constants.VersionPath, s.Handlers.HealthHandler.Version)
		r.Get(constants.CSRFTokenPath, s.Handlers.CSRFHandler.GetToken)
	})

	// Form submissions, each behind rate limit, CSRF, validation and content scan
	r.Post(constants.ContactPath, middleware.Protect(deps, s.Handlers.FormHandler.SubmitContact))
	r.Post(constants.AppointmentsPath, middleware.Protect(deps, s.Handlers.FormHandler.SubmitAppointment))
	r.Post(constants.ComplaintsPath, middleware.Protect(deps, s.Handlers.FormHandler.SubmitComplaint))

	// Admin endpoints
	r.Route(constants.AdminBasePath, func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtProvider))
		r.Use(auth.RequireRole(constants.RoleAdmin))
		r.Use(readLimit)
		r.Use(chimiddleware.NoCache)

		r.Get(constants.AdminSecurityEventsRoute, s.Handlers.SecurityHandler.ListEvents)
		r.Get(constants.AdminSecuritySummaryRoute, s.Handlers.SecurityHandler.Summary)
		r.Get(constants.AdminRoutesRoute, s.GetAPIRoutes)
	})

	if s.Metrics != nil {
		path := s.Config.Metrics.Path
		if path == "" {
			path = constants.DefaultMetricsPath
		}
		r.Method(http.MethodGet, path, s.Metrics.Handler())
	}

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// RouteInfo describes one registered endpoint.
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// GetAPIRoutes lists the registered endpoints, sorted by pattern then method.
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []RouteInfo
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{
			Method:  method,
			Pattern: strings.TrimSuffix(strings.ReplaceAll(route, "/*/", "/"), "/"),
		})
		return nil
	})
	if err != nil {
		utils.InternalServerError(w, err)
		return
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})

	utils.JSON(w, http.StatusOK, routes)
}
