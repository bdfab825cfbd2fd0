// Package server provides the HTTP server of the forms API.
// It handles routing, middleware configuration, and server lifecycle management.
//
// The server follows a structured initialization approach with dependency
// injection: database, rate limit store, security components, services,
// handlers, routes. It handles graceful shutdown, draining the audit trail
// before closing the database.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/database"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/handlers"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/metrics"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/middleware"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/repository"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/service"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/ratelimit"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/migrations"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	// CSRFHandler issues CSRF tokens
	CSRFHandler *handlers.CSRFHandler

	// FormHandler serves the public forms behind the security gateway
	FormHandler *handlers.FormHandler

	// SecurityHandler serves the admin audit endpoints
	SecurityHandler *handlers.SecurityHandler

	// HealthHandler serves health and version
	HealthHandler *handlers.HealthHandler
}

// Security groups the components of the request security layer.
type Security struct {
	// Tokens issues and validates CSRF tokens
	Tokens *auth.TokenService

	// Limiter enforces per-class request budgets
	Limiter *ratelimit.Limiter

	// Identity derives the hashed rate limit identity of requests
	Identity *middleware.IdentityResolver

	// JWT authenticates callers when a bearer token is present
	JWT *auth.JWTService
}

// Server represents the API server.
// It encapsulates all server components and handles server lifecycle management,
// including initialization, startup, and graceful shutdown.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// Redis backs the shared rate limit store, nil with the memory store
	Redis *redis.Client

	// Metrics is nil when metrics are disabled
	Metrics *metrics.Metrics

	// Security holds the gateway components
	Security *Security

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	// router handles HTTP routing
	router chi.Router

	audit       *service.SecurityService
	submissions *service.SubmissionService

	// httpServer is the underlying HTTP server
	httpServer *http.Server

	clock       clockwork.Clock
	maintenance *maintenance
}

// NewServer creates a new server instance with all required components.
//
// Parameters:
//   - cfg: Application configuration including database, server, and security settings
//
// Returns:
//   - A fully initialized Server instance ready to start
//   - An error if initialization of any component fails
func NewServer(cfg *config.AppConfig) (*Server, error) {
	s := &Server{
		Config: cfg,
		clock:  clockwork.NewRealClock(),
	}

	if err := s.setupDatabase(); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	store, err := s.setupRateLimitStore()
	if err != nil {
		s.Db.Close()
		return nil, fmt.Errorf("failed to set up rate limit store: %w", err)
	}

	if err := s.initialize(store); err != nil {
		if s.Security == nil {
			_ = store.Close()
		}
		s.closeResources(context.Background())
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// initialize builds everything above the database and the store, then the routes.
func (s *Server) initialize(store ratelimit.Store) error {
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if err := s.setupSecurity(store); err != nil {
		return fmt.Errorf("failed to set up security: %w", err)
	}
	s.setupServices()
	s.setupHandlers()
	s.SetupRoutes()
	return nil
}

// setupDatabase connects to the database and runs migrations.
func (s *Server) setupDatabase() error {
	db, err := database.Connect(s.Config)
	if err != nil {
		return err
	}
	s.Db = db

	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		db.Close()
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// setupRateLimitStore opens the configured counter backend. The Redis store
// is shared between instances; the memory store is local to this process.
func (s *Server) setupRateLimitStore() (ratelimit.Store, error) {
	rl := s.Config.Security.RateLimit
	if rl.Store != constants.RateLimitStoreRedis {
		return ratelimit.NewMemoryStore(s.clock, rl.CleanupInterval), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         s.Config.Redis.Address,
		Password:     s.Config.Redis.Password,
		DB:           s.Config.Redis.DB,
		DialTimeout:  constants.RedisDialTimeout,
		ReadTimeout:  constants.RedisReadTimeout,
		WriteTimeout: constants.RedisWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if !rl.FailOpen {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		log.Warn().Err(err).Msg("Redis unreachable at startup, rate limiting fails open")
	}

	store, err := ratelimit.NewRedisStore(ratelimit.RedisStoreConfig{Client: client})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.Redis = client

	log.Info().Str("address", s.Config.Redis.Address).Msg("Using Redis rate limit store")
	return store, nil
}

// setupSecurity builds the metrics, CSRF, identity and rate limit components.
func (s *Server) setupSecurity(store ratelimit.Store) error {
	if s.Config.Metrics.Enabled && s.Metrics == nil {
		s.Metrics = metrics.New()
	}

	sec := s.Config.Security

	tokens, err := auth.NewTokenService(sec.CSRF)
	if err != nil {
		return fmt.Errorf("failed to create CSRF token service: %w", err)
	}

	identity, err := middleware.NewIdentityResolver(sec.IdentityHashKey, sec.TrustProxy)
	if err != nil {
		return fmt.Errorf("failed to create identity resolver: %w", err)
	}

	rules := make(map[string]ratelimit.Rule, len(sec.RateLimit.Rules))
	for class, rule := range sec.RateLimit.Rules {
		rules[class] = ratelimit.Rule{MaxAttempts: rule.MaxAttempts, Window: rule.Window}
	}
	if len(rules) == 0 {
		rules = nil
	}

	limiter, err := ratelimit.NewLimiter(store, ratelimit.Options{
		Rules:     rules,
		KeyPrefix: sec.RateLimit.KeyPrefix,
		FailOpen:  sec.RateLimit.FailOpen,
	})
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	s.Security = &Security{
		Tokens:   tokens,
		Limiter:  limiter,
		Identity: identity,
		JWT:      auth.NewJWTService(&s.Config.JWT),
	}
	return nil
}

// setupServices initializes the repositories and the services built on them.
func (s *Server) setupServices() {
	s.audit = service.NewSecurityService(
		repository.NewSecurityEventRepository(s.Db),
		s.Config.Security.Audit,
		s.Metrics,
		s.clock,
	)
	s.submissions = service.NewSubmissionService(repository.NewFormSubmissionRepository(s.Db))
}

// setupHandlers initializes all HTTP request handlers.
func (s *Server) setupHandlers() {
	checks := map[string]handlers.HealthChecker{}
	if s.Db != nil {
		checks["database"] = s.Db
	}

	s.Handlers = &Handlers{
		CSRFHandler:     handlers.NewCSRFHandler(s.Security.Tokens, s.Metrics),
		FormHandler:     handlers.NewFormHandler(s.submissions),
		SecurityHandler: handlers.NewSecurityHandler(s.audit, s.clock),
		HealthHandler:   handlers.NewHealthHandler(s.Config.App, checks),
	}
}

// gatewayDeps returns the collaborators of the security pipeline.
func (s *Server) gatewayDeps() middleware.GatewayDeps {
	return middleware.GatewayDeps{
		Limiter:  s.Security.Limiter,
		Tokens:   s.Security.Tokens,
		Identity: s.Security.Identity,
		Metrics:  s.Metrics,
		Recorder: s.audit,
	}
}

// Start starts the HTTP server and sets up signal handling for graceful shutdown.
// It runs in a blocking mode, waiting for either server errors or shutdown signals.
//
// Returns:
//   - An error if the server fails to start or encounters an error during operation
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		s.closeResources(context.Background())
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server. In-flight requests complete
// first, then the audit queue is drained and the stores are closed.
//
// Parameters:
//   - ctx: Context with timeout for the shutdown operation
//
// Returns:
//   - An error if the HTTP server fails to stop within the context timeout
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info().Msg("Server stopped gracefully")
	}

	s.closeResources(ctx)
	return nil
}

// closeResources releases everything the server owns. Failures are logged,
// never returned, so that one failing component does not keep others open.
func (s *Server) closeResources(ctx context.Context) {
	s.stopMaintenance()

	if s.audit != nil {
		auditCtx, cancel := context.WithTimeout(ctx, constants.AuditShutdownTimeout)
		middleware.LogAndContinueOnError(s.audit.Close(auditCtx), "Failed to drain audit trail")
		cancel()
	}

	if s.Security != nil && s.Security.Limiter != nil {
		middleware.LogAndContinueOnError(s.Security.Limiter.Close(), "Failed to close rate limit store")
	}

	if s.Redis != nil {
		middleware.LogAndContinueOnError(s.Redis.Close(), "Failed to close redis client")
	}

	if s.Db != nil {
		s.Db.Close()
		log.Info().Msg("Database connection closed")
	}
}
