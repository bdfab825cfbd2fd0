// Package handlers provides HTTP request handlers for the public forms API
// and its admin audit endpoints.
package handlers

import (
	"context"
	"time"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
)

// SubmissionServiceInterface defines methods required from the submission service.
type SubmissionServiceInterface interface {
	// Submit stores a validated form payload and returns the created submission.
	Submit(ctx context.Context, kind string, payload any, identityHash string) (*models.FormSubmission, error)
}

// SecurityEventServiceInterface defines the read side of the audit trail.
// This interface is used by the admin handlers so they can be tested without
// a database.
type SecurityEventServiceInterface interface {
	// List returns one page of events matching filter and the total match count.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - filter: Event type, lower time bound and page
	//
	// Returns:
	//   - The events, newest first
	//   - The number of events matching the filter, ignoring the page
	//   - An error if the query fails
	List(ctx context.Context, filter models.SecurityEventFilter) ([]*models.SecurityEvent, int, error)

	// Summary counts events per type since the given time. A zero time
	// selects the retention window.
	Summary(ctx context.Context, since time.Time) (*models.SecurityEventSummary, error)
}

// HealthChecker is implemented by dependencies probed by the health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
