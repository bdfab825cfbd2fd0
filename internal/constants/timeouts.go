package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout   = 30 * time.Second
	DBQueryTimeout        = 15 * time.Second
	DBHealthCheckTimeout  = 5 * time.Second
	DBConnMaxLifetime     = 1 * time.Hour
	DBConnMaxIdleTime     = 30 * time.Minute
	DBMaintenanceInterval = 1 * time.Hour
	DBMaintenanceTimeout  = 5 * time.Minute
)

// Redis Timeouts
const (
	RedisDialTimeout  = 2 * time.Second
	RedisReadTimeout  = 500 * time.Millisecond
	RedisWriteTimeout = 500 * time.Millisecond
)

// Authentication Timeouts
const (
	DefaultJWTExpiry = 15 * time.Minute
)

// Security Durations
const (
	DefaultCSRFMaxAge             = 1 * time.Hour
	DefaultReadWindow             = 1 * time.Minute
	DefaultFormSubmissionWindow   = 1 * time.Hour
	DefaultRateLimitCleanup       = 5 * time.Minute
	AuditShutdownTimeout          = 5 * time.Second
	AuditWriteTimeout             = 3 * time.Second
	DefaultAuditMaintenanceWindow = 24 * time.Hour
)
