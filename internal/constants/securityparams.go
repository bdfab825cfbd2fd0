package constants

// Context Key Names
const (
	UserIDContextKey    = "user_id"
	UsernameContextKey  = "username"
	RoleContextKey      = "role"
	RequestIDContextKey = "request_id"
	IdentityContextKey  = "identity"
)

// Auth Token Types
const (
	TokenTypeAccess = "access"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Cookie Names
const (
	AuthTokenCookie = "auth_token"

	// CSRFTokenCookie uses the __Host- prefix: Secure, Path=/ and no Domain are
	// enforced by browsers.
	CSRFTokenCookie = "__Host-csrf-token"
)

// CSRF parameters
const (
	DefaultCSRFTokenLength = 32
	MinCSRFTokenLength     = 16
	DefaultCSRFSameSite    = "Strict"
)

// CSRFExemptPaths are never CSRF-checked.
var CSRFExemptPaths = []string{
	"/api/webhooks/",
	"/api/auth/callback",
	"/api/health",
}

// Rate limit route classes
const (
	RouteClassRead           = "read"
	RouteClassFormSubmission = "form-submission"
)

// Rate limit store backends
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Identity prefixes. The ip prefix marks the weaker signal.
const (
	IdentityPrefixUser = "user:"
	IdentityPrefixIP   = "ip:"
)

// Security event types recorded in the audit trail. They match the response types.
const (
	EventRateLimited       = TypeRateLimited
	EventCSRFFailed        = TypeCSRFValidationFailed
	EventValidationFailed  = TypeValidationError
	EventSecurityViolation = TypeSecurityViolation
	EventInternalError     = TypeInternalError
)

// SecurityEventTypes lists every event type accepted by the audit filters.
var SecurityEventTypes = []string{
	EventRateLimited,
	EventCSRFFailed,
	EventValidationFailed,
	EventSecurityViolation,
	EventInternalError,
}

// Form submission kinds
const (
	SubmissionKindContact     = "contact"
	SubmissionKindAppointment = "appointment"
	SubmissionKindComplaint   = "complaint"
)
