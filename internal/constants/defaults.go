// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// Changes to these values may significantly impact application behavior and security.
package constants

// Default Pagination Values define the parameters used for paginated responses.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1
)

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	DefaultDBDriver         = "mysql"
	DefaultDBMaxConnections = 20
	DefaultDBMinConnections = 5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultLogFile is used by the rotating sink in production.
	DefaultLogFile           = "./logs/app.log"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 5
	DefaultLogMaxAgeDays     = 30
	DefaultMetricsPath       = "/metrics"
	DefaultRedisAddress      = "localhost:6379"
	DefaultRateLimitPrefix   = "ratelimit"
	DefaultAuditBufferSize   = 1024
	DefaultAuditListLimit    = 50
	DefaultAuditRetention    = 30 // days
	DefaultJWTIssuer         = "formation-hub-api"
	DefaultVersion           = "1.0.0"
	DefaultApplicationName   = "formation-hub"
	DefaultDevIdentityKey    = "dev-identity-hash-key"
	DefaultRedactionMaxDepth = 32
)

// Default rate limit rules per route class.
const (
	DefaultReadMaxAttempts           = 100
	DefaultFormSubmissionMaxAttempts = 5
)

// Environment Types define the recognized application running environments.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// File Size Limits define the maximum allowed sizes for request bodies.
const (
	// MaxRequestBodySize is the maximum size in bytes for form submissions.
	MaxRequestBodySize = 64 * 1024

	// MaxRequestIDLength bounds client-supplied X-Request-ID values.
	MaxRequestIDLength = 128
)

// Auth Constants
const (
	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "
)
