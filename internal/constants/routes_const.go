package constants

// Base Routes
const (
	APIBasePath = "/api"
	HealthPath  = "/api/health"
	VersionPath = "/api/version"
)

// Security Routes
const (
	CSRFTokenPath = "/api/csrf-token"
)

// Public form routes
const (
	ContactPath      = "/api/contact"
	AppointmentsPath = "/api/appointments"
	ComplaintsPath   = "/api/complaints"
)

// Admin Routes
const (
	AdminBasePath             = "/api/admin"
	AdminSecurityEventsPath   = "/api/admin/security-events"
	AdminSecuritySummaryPath  = "/api/admin/security-events/summary"
	AdminSecurityEventsRoute  = "/security-events"
	AdminSecuritySummaryRoute = "/security-events/summary"
	AdminRoutesPath           = "/api/admin/routes"
	AdminRoutesRoute          = "/routes"
)
