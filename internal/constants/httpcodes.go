// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines HTTP-related constants such as status codes,
// response types, headers, and content types. These constants keep the JSON error
// envelope stable so that browser clients can branch on the error type (reissue a
// CSRF token, back off after a rate limit, fix a form field).
package constants

// HTTP Status Codes define the standard HTTP response status codes used in the application.
const (
	// StatusOK indicates that the request has succeeded.
	StatusOK = 200

	// StatusCreated indicates that the request has succeeded and a new resource has been created.
	StatusCreated = 201

	// StatusNoContent indicates that the request has succeeded but there is no content to send.
	StatusNoContent = 204

	// StatusBadRequest indicates that the server cannot process the request due to client error.
	StatusBadRequest = 400

	// StatusUnauthorized indicates that the request lacks valid authentication credentials.
	StatusUnauthorized = 401

	// StatusForbidden indicates that the server understood the request but refuses to authorize it.
	StatusForbidden = 403

	// StatusNotFound indicates that the server cannot find the requested resource.
	StatusNotFound = 404

	// StatusMethodNotAllowed indicates that the request method is not supported for the requested resource.
	StatusMethodNotAllowed = 405

	// StatusConflict indicates that the request conflicts with the current state of the server.
	StatusConflict = 409

	// StatusRequestEntityTooLarge indicates that the request body exceeds the accepted size.
	StatusRequestEntityTooLarge = 413

	// StatusTooManyRequests indicates that the caller exhausted its rate limit budget.
	StatusTooManyRequests = 429

	// StatusInternalServerError indicates that the server encountered an unexpected condition.
	StatusInternalServerError = 500

	// StatusServiceUnavailable indicates that a dependency required by the request is down.
	StatusServiceUnavailable = 503
)

// Response Types are the machine-readable discriminators placed in error.type.
// Clients branch on these values, so they must never change.
const (
	// ResponseSuccess indicates that the request was processed successfully.
	ResponseSuccess = true

	// ResponseFailure indicates that the request processing failed.
	ResponseFailure = false

	// TypeBadRequest indicates a malformed request that is not a field validation problem.
	TypeBadRequest = "bad_request"

	// TypeUnauthorized indicates missing or invalid authentication.
	TypeUnauthorized = "unauthorized"

	// TypeForbidden indicates the user lacks permission for the requested action.
	TypeForbidden = "forbidden"

	// TypeNotFound indicates the requested resource does not exist.
	TypeNotFound = "not_found"

	// TypeMethodNotAllowed indicates the HTTP method is not allowed for the endpoint.
	TypeMethodNotAllowed = "method_not_allowed"

	// TypeConflict indicates a resource conflict, such as a duplicate entry.
	TypeConflict = "conflict"

	// TypeInternalError indicates an unexpected server error. Never carries detail.
	TypeInternalError = "internal_error"

	// TypeValidationError indicates the payload did not match the route schema.
	TypeValidationError = "validation_error"

	// TypeCSRFValidationFailed indicates a missing, expired or mismatched CSRF token.
	TypeCSRFValidationFailed = "csrf_validation_failed"

	// TypeSecurityViolation indicates the payload matched a malicious-content signature.
	TypeSecurityViolation = "security_violation"

	// TypeRateLimited indicates the caller must wait before retrying.
	TypeRateLimited = "rate_limited"

	// TypeTokenExpired indicates an authentication token has expired.
	TypeTokenExpired = "token_expired"

	// TypeTokenInvalid indicates an authentication token is malformed or invalid.
	TypeTokenInvalid = "token_invalid"

	// TypeServiceUnavailable indicates a required dependency is unavailable.
	TypeServiceUnavailable = "service_unavailable"
)

// HTTP Header Names define common HTTP headers used in requests and responses.
const (
	HeaderContentType   = "Content-Type"
	HeaderCacheControl  = "Cache-Control"
	HeaderPragma        = "Pragma"
	HeaderExpires       = "Expires"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// HeaderXCSRFToken carries the double-submitted CSRF token.
	HeaderXCSRFToken = "X-CSRF-Token"

	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"

	// HeaderRetryAfter is set on 429 responses, in whole seconds.
	HeaderRetryAfter = "Retry-After"

	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderXRateLimitReset     = "X-RateLimit-Reset"

	HeaderXContentTypeOptions     = "X-Content-Type-Options"
	HeaderXFrameOptions           = "X-Frame-Options"
	HeaderReferrerPolicy          = "Referrer-Policy"
	HeaderContentSecurityPolicy   = "Content-Security-Policy"
	HeaderStrictTransportSecurity = "Strict-Transport-Security"
	HeaderPermissionsPolicy       = "Permissions-Policy"
)

// HTTP Content Types define media types used in the Content-Type header.
const (
	// ContentTypeJSON specifies the content is in JSON format.
	ContentTypeJSON = "application/json"
)

// Security Header Values define the values for various security-related HTTP headers.
const (
	// FrameOptionsDeny prevents the page from being displayed in a frame.
	FrameOptionsDeny = "DENY"

	// ContentTypeOptionsNoSniff prevents MIME type sniffing.
	ContentTypeOptionsNoSniff = "nosniff"

	// ReferrerPolicyStrictOrigin restricts referrer information to origin only for cross-origin requests.
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"

	// CSPDefaultSrc restricts content sources to the same origin by default.
	CSPDefaultSrc = "default-src 'self'; frame-ancestors 'none'"

	// HSTSMaxAge enables HSTS for a year, production only.
	HSTSMaxAge = "max-age=31536000; includeSubDomains"

	// PermissionsPolicyNone disables powerful browser features for API responses.
	PermissionsPolicyNone = "camera=(), microphone=(), geolocation=()"

	// CacheControlNoStore prevents caching of sensitive information.
	CacheControlNoStore = "no-cache, no-store, must-revalidate"

	// PragmaNoCache prevents caching in HTTP/1.0 caches.
	PragmaNoCache = "no-cache"

	// ExpiresZero sets the expiration date to the past to prevent caching.
	ExpiresZero = "0"
)
