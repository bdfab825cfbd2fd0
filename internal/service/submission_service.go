package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/repository"
)

// SubmissionService stores public form submissions that passed the gateway.
type SubmissionService struct {
	repo repository.FormSubmissionRepository
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(repo repository.FormSubmissionRepository) *SubmissionService {
	return &SubmissionService{repo: repo}
}

// Submit persists a validated payload and returns the stored submission.
//
// Parameters:
//   - ctx: Context for the operation
//   - kind: contact, appointment or complaint
//   - payload: The validated request
//   - identityHash: The hashed caller identity
//
// Returns:
//   - The stored submission, whose ID is the reference given to the submitter
//   - Error if encoding or storage fails
func (s *SubmissionService) Submit(ctx context.Context, kind string, payload any, identityHash string) (*models.FormSubmission, error) {
	submission, err := models.NewFormSubmission(kind, payload, identityHash)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, err
	}

	log.Info().
		Str("category", constants.LogCategoryForms).
		Str("kind", kind).
		Str("reference", submission.ID).
		Msg("Form submission stored")

	return submission, nil
}
