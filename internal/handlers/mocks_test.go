package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
)

// MockSubmissionService implements SubmissionServiceInterface for testing
type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, kind string, payload any, identityHash string) (*models.FormSubmission, error) {
	args := m.Called(ctx, kind, payload, identityHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormSubmission), args.Error(1)
}

// MockSecurityEventService implements SecurityEventServiceInterface for testing
type MockSecurityEventService struct {
	mock.Mock
}

func (m *MockSecurityEventService) List(ctx context.Context, filter models.SecurityEventFilter) ([]*models.SecurityEvent, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.SecurityEvent), args.Int(1), args.Error(2)
}

func (m *MockSecurityEventService) Summary(ctx context.Context, since time.Time) (*models.SecurityEventSummary, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SecurityEventSummary), args.Error(1)
}

// stubHealthCheck returns err on every probe
type stubHealthCheck struct {
	err error
}

func (s stubHealthCheck) HealthCheck(context.Context) error {
	return s.err
}
