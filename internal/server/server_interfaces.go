package server

import (
	"context"

	"github.com/go-chi/chi/v5"
)

// ServerInterface defines the lifecycle of the API server. It lets cmd/api
// and tests drive the server without depending on its internals.
type ServerInterface interface {
	// SetupRoutes configures the HTTP routes for the server
	SetupRoutes()

	// GetRouter returns the configured router for request handling
	GetRouter() chi.Router

	// Start begins listening for HTTP requests
	Start() error

	// Shutdown gracefully stops the server
	Shutdown(ctx context.Context) error

	// SetupMaintenanceTasks initializes background maintenance operations
	SetupMaintenanceTasks()
}

var _ ServerInterface = (*Server)(nil)
