// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling and messaging.
// User-facing messages are informative without revealing implementation details
// that could help an attacker tune a payload.
package constants

// Error Types define the categories of errors that can occur in the application.
// These are used for internal error classification and handling.
const (
	ErrorNotFound          = "resource not found"
	ErrorUnauthorized      = "unauthorized access"
	ErrorForbidden         = "forbidden access"
	ErrorBadRequest        = "invalid request"
	ErrorInternalServer    = "internal server error"
	ErrorValidation        = "validation error"
	ErrorDuplicate         = "duplicate resource"
	ErrorExpiredToken      = "expired token"
	ErrorInvalidToken      = "invalid token"
	ErrorCSRF              = "csrf validation failed"
	ErrorRateLimited       = "rate limit exceeded"
	ErrorSecurityViolation = "security violation"
)

// User-Facing Error Messages define standardized messages that can be safely presented to users.
const (
	// MsgAuthRequired indicates that the user must authenticate to access the resource.
	MsgAuthRequired = "Authentication required"

	// MsgAccessDenied indicates that the user lacks permission for the requested action.
	MsgAccessDenied = "You don't have permission to access this resource"

	// MsgInternalServerError is the only message a caller ever sees for a 500.
	MsgInternalServerError = "An unexpected error occurred while processing your request"

	MsgTokenExpired = "Authentication token has expired"
	MsgInvalidToken = "Invalid token"

	MsgRequestBodyTooLarge = "Request body too large"
	MsgEmptyRequestBody    = "Request body must not be empty"
	MsgMalformedJSON       = "Request body contains malformed JSON"

	MsgResourceNotFound      = "The requested resource could not be found"
	MsgResourceAlreadyExists = "A resource with the same unique identifier already exists"
	MsgMethodNotAllowed      = "This method is not allowed for this resource"

	// MsgValidationFailed is used when more than one field is invalid.
	MsgValidationFailed = "Request validation failed"

	// MsgCSRFValidationFailed asks the client to fetch a fresh token and retry.
	MsgCSRFValidationFailed = "Invalid or missing CSRF token"

	// MsgRateLimited is returned with a Retry-After header.
	MsgRateLimited = "Too many requests, please try again later"

	// MsgSecurityViolation never echoes the offending content.
	MsgSecurityViolation = "The request contains content that is not allowed"

	MsgServiceUnavailable = "The service is temporarily unavailable"

	MsgSubmissionReceived = "Your request has been received"
)

// Database Error Types define constants for recognizing driver-specific errors.
const (
	// PGErrorDuplicateConstraint is the PostgreSQL error code for unique constraint violations.
	PGErrorDuplicateConstraint = "23505"

	// MySQLErrorDuplicateEntry is the MySQL error number for unique key violations.
	MySQLErrorDuplicateEntry = 1062
)

// Logger Constants define values used for structured logging.
const (
	LogCategorySecurity = "security"
	LogCategoryAudit    = "audit"
	LogCategoryForms    = "forms"

	// LogRedactedValue replaces sensitive values in logs and audit details.
	LogRedactedValue = "[REDACTED]"
)
