package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App      AppSettings      `yaml:"app"`
	Database DatabaseSettings `yaml:"database"`
	Server   ServerSettings   `yaml:"server"`
	Redis    RedisSettings    `yaml:"redis"`
	JWT      JWTSettings      `yaml:"jwt"`
	Logging  LoggingSettings  `yaml:"logging"`
	CORS     CORSSettings     `yaml:"cors"`
	Security SecuritySettings `yaml:"security"`
	Metrics  MetricsSettings  `yaml:"metrics"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings
type DatabaseSettings struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// RedisSettings contains the Redis connection used by the shared rate limit store
type RedisSettings struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// JWTSettings contains JWT authentication settings
type JWTSettings struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// SecuritySettings groups the request security layer
type SecuritySettings struct {
	// TrustProxy enables X-Forwarded-For and X-Real-IP for client address resolution.
	TrustProxy      bool              `yaml:"trust_proxy" env:"SECURITY_TRUST_PROXY"`
	IdentityHashKey string            `yaml:"identity_hash_key" env:"SECURITY_IDENTITY_HASH_KEY"`
	CSRF            CSRFSettings      `yaml:"csrf"`
	RateLimit       RateLimitSettings `yaml:"rate_limit"`
	Audit           AuditSettings     `yaml:"audit"`
}

// CSRFSettings configures the double-submit token service
type CSRFSettings struct {
	CookieName  string        `yaml:"cookie_name" env:"CSRF_COOKIE_NAME"`
	HeaderName  string        `yaml:"header_name" env:"CSRF_HEADER_NAME"`
	TokenLength int           `yaml:"token_length" env:"CSRF_TOKEN_LENGTH"`
	MaxAge      time.Duration `yaml:"max_age" env:"CSRF_MAX_AGE"`
	SameSite    string        `yaml:"same_site" env:"CSRF_SAME_SITE"`
	// Secure is forced on in production.
	Secure      bool     `yaml:"secure" env:"CSRF_SECURE"`
	ExemptPaths []string `yaml:"exempt_paths" env:"CSRF_EXEMPT_PATHS"`
}

// RateLimitRule is the configured budget of one route class
type RateLimitRule struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

// RateLimitSettings configures the limiter and its store
type RateLimitSettings struct {
	Store           string                   `yaml:"store" env:"RATE_LIMIT_STORE"`
	FailOpen        bool                     `yaml:"fail_open" env:"RATE_LIMIT_FAIL_OPEN"`
	KeyPrefix       string                   `yaml:"key_prefix" env:"RATE_LIMIT_KEY_PREFIX"`
	CleanupInterval time.Duration            `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL"`
	Rules           map[string]RateLimitRule `yaml:"rules" env:"RATE_LIMIT_RULES"`
}

// AuditSettings configures the security event trail
type AuditSettings struct {
	Enabled    bool `yaml:"enabled" env:"AUDIT_ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"AUDIT_BUFFER_SIZE"`
	// Retention in days; older events are purged by the maintenance task.
	Retention int `yaml:"retention" env:"AUDIT_RETENTION_DAYS"`
}

// MetricsSettings configures the Prometheus endpoint
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `yaml:"path" env:"METRICS_PATH"`
}

// ConnectionString returns the database connection string for the configured driver
func (dbs *DatabaseSettings) ConnectionString() string {
	if dbs.Driver == constants.DriverPostgres {
		sslMode := dbs.SSLMode
		if sslMode == "" {
			sslMode = constants.PostgresSSLDisable
		}
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			dbs.Host, dbs.Port, dbs.User, dbs.Password, dbs.Name, sslMode, constants.PostgresConnectTimeout,
		)
	}

	// MariaDB/MySQL connection string format: username:password@tcp(host:port)/dbname
	password := dbs.Password
	if password != "" {
		password = ":" + password
	}

	return fmt.Sprintf(
		"%s%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		dbs.User, password, dbs.Host, dbs.Port, dbs.Name,
	)
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Set defaults for missing values
	setDefaults(config)

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Save the configuration globally
	cfg = config

	// Log the configuration (but hide sensitive values)
	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	// App defaults
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultApplicationName
	}
	if config.App.Version == "" {
		config.App.Version = constants.DefaultVersion
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = constants.DefaultIdleTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Driver == "" {
		config.Database.Driver = constants.DefaultDBDriver
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	// JWT defaults
	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	// Logging defaults
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}
	if config.Logging.File == "" {
		config.Logging.File = constants.DefaultLogFile
	}
	if config.Logging.MaxSizeMB == 0 {
		config.Logging.MaxSizeMB = constants.DefaultLogMaxSizeMB
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAgeDays == 0 {
		config.Logging.MaxAgeDays = constants.DefaultLogMaxAgeDays
	}

	// CORS defaults
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	setSecurityDefaults(config)

	if config.Metrics.Path == "" {
		config.Metrics.Path = constants.DefaultMetricsPath
	}
}

// setSecurityDefaults fills the security section
func setSecurityDefaults(config *AppConfig) {
	sec := &config.Security

	if sec.IdentityHashKey == "" && !config.App.IsProduction() {
		sec.IdentityHashKey = constants.DefaultDevIdentityKey
	}

	csrf := &sec.CSRF
	if csrf.CookieName == "" {
		csrf.CookieName = constants.CSRFTokenCookie
	}
	if csrf.HeaderName == "" {
		csrf.HeaderName = constants.HeaderXCSRFToken
	}
	if csrf.TokenLength == 0 {
		csrf.TokenLength = constants.DefaultCSRFTokenLength
	}
	if csrf.MaxAge == 0 {
		csrf.MaxAge = constants.DefaultCSRFMaxAge
	}
	if csrf.SameSite == "" {
		csrf.SameSite = constants.DefaultCSRFSameSite
	}
	if config.App.IsProduction() || strings.HasPrefix(csrf.CookieName, "__Host-") {
		// __Host- cookies are rejected by browsers without Secure
		csrf.Secure = true
	}
	if csrf.ExemptPaths == nil {
		csrf.ExemptPaths = append([]string(nil), constants.CSRFExemptPaths...)
	}

	rl := &sec.RateLimit
	if rl.Store == "" {
		rl.Store = constants.RateLimitStoreMemory
	}
	if rl.KeyPrefix == "" {
		rl.KeyPrefix = constants.DefaultRateLimitPrefix
	}
	if rl.CleanupInterval == 0 {
		rl.CleanupInterval = constants.DefaultRateLimitCleanup
	}
	if rl.Rules == nil {
		rl.Rules = make(map[string]RateLimitRule)
	}
	if _, ok := rl.Rules[constants.RouteClassRead]; !ok {
		rl.Rules[constants.RouteClassRead] = RateLimitRule{
			MaxAttempts: constants.DefaultReadMaxAttempts,
			Window:      constants.DefaultReadWindow,
		}
	}
	if _, ok := rl.Rules[constants.RouteClassFormSubmission]; !ok {
		rl.Rules[constants.RouteClassFormSubmission] = RateLimitRule{
			MaxAttempts: constants.DefaultFormSubmissionMaxAttempts,
			Window:      constants.DefaultFormSubmissionWindow,
		}
	}

	if sec.Audit.BufferSize == 0 {
		sec.Audit.BufferSize = constants.DefaultAuditBufferSize
	}
	if sec.Audit.Retention == 0 {
		sec.Audit.Retention = constants.DefaultAuditRetention
	}

	if rl.Store == constants.RateLimitStoreRedis && config.Redis.Address == "" {
		config.Redis.Address = constants.DefaultRedisAddress
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	// Validate environment
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		// Instead of failing, use a default and warn
		log.Warn().
			Str("environment", config.App.Environment).
			Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	// In production, ensure we have a proper JWT secret
	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}
	if config.App.IsProduction() && config.Security.IdentityHashKey == "" {
		return fmt.Errorf("identity hash key must be set in production")
	}

	// Database validation - connection details required
	if config.Database.User == "" {
		return fmt.Errorf("database user must be set")
	}
	if config.Database.Driver != constants.DriverMySQL && config.Database.Driver != constants.DriverPostgres {
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	// Validate log level
	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return validateSecurity(&config.Security, &config.Redis)
}

// validateSecurity checks the CSRF and rate limit sections
func validateSecurity(sec *SecuritySettings, redis *RedisSettings) error {
	csrf := sec.CSRF
	if csrf.TokenLength < constants.MinCSRFTokenLength {
		return fmt.Errorf("csrf token length must be at least %d, got %d", constants.MinCSRFTokenLength, csrf.TokenLength)
	}
	switch csrf.SameSite {
	case "Strict", "Lax":
	case "None":
		if !csrf.Secure {
			return fmt.Errorf("csrf same_site None requires secure cookies")
		}
	default:
		return fmt.Errorf("invalid csrf same_site: %s", csrf.SameSite)
	}

	rl := sec.RateLimit
	switch rl.Store {
	case constants.RateLimitStoreMemory:
	case constants.RateLimitStoreRedis:
		if redis.Address == "" {
			return fmt.Errorf("redis address must be set when rate limit store is redis")
		}
	default:
		return fmt.Errorf("invalid rate limit store: %s", rl.Store)
	}
	for class, rule := range rl.Rules {
		if rule.MaxAttempts <= 0 || rule.Window <= 0 {
			return fmt.Errorf("invalid rate limit rule for class %s", class)
		}
	}

	if sec.Audit.BufferSize < 0 {
		return fmt.Errorf("audit buffer size must not be negative")
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	// Create a copy of the config to mask sensitive values
	logCfg := *config

	// Mask sensitive information
	if logCfg.Database.Password != "" {
		logCfg.Database.Password = constants.LogRedactedValue
	}
	if logCfg.JWT.Secret != "" {
		logCfg.JWT.Secret = constants.LogRedactedValue
	}

	log.Info().
		Str("environment", logCfg.App.Environment).
		Str("version", logCfg.App.Version).
		Str("server", logCfg.Server.ServerAddress()).
		Str("db_driver", logCfg.Database.Driver).
		Str("db_host", logCfg.Database.Host).
		Int("db_port", logCfg.Database.Port).
		Str("db_name", logCfg.Database.Name).
		Str("log_level", logCfg.Logging.Level).
		Str("rate_limit_store", logCfg.Security.RateLimit.Store).
		Bool("trust_proxy", logCfg.Security.TrustProxy).
		Bool("audit_enabled", logCfg.Security.Audit.Enabled).
		Msg("Configuration loaded")
}
