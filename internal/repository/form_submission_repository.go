package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/database"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// FormSubmissionRepository stores accepted public form submissions.
type FormSubmissionRepository interface {
	// Create stores a submission.
	//
	// Returns:
	//   - DuplicateError if the reference already exists
	//   - Other errors for database issues
	Create(ctx context.Context, submission *models.FormSubmission) error

	// CountByKind counts stored submissions of one kind.
	CountByKind(ctx context.Context, kind string) (int64, error)
}

// SQLFormSubmissionRepository implements FormSubmissionRepository on MySQL or PostgreSQL.
type SQLFormSubmissionRepository struct {
	crud *database.CRUD
}

// NewFormSubmissionRepository creates a new FormSubmissionRepository.
func NewFormSubmissionRepository(db *database.Pool) FormSubmissionRepository {
	return &SQLFormSubmissionRepository{crud: database.NewCRUD(db)}
}

// Create stores a submission.
func (r *SQLFormSubmissionRepository) Create(ctx context.Context, submission *models.FormSubmission) error {
	startTime := time.Now()

	err := r.crud.Create(ctx, submission)

	// Payload holds personal data, it is never logged
	utils.LogDBQuery(
		"INSERT INTO "+constants.TableFormSubmissions,
		[]interface{}{submission.ID, submission.Kind, constants.LogRedactedValue, submission.IdentityHash, submission.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if appErr := utils.ParseError(err); appErr.Type() == constants.TypeConflict {
			return utils.NewDuplicateError("FormSubmission", "id", submission.ID)
		}
		return fmt.Errorf("failed to create form submission: %w", err)
	}

	return nil
}

// CountByKind counts stored submissions of one kind.
func (r *SQLFormSubmissionRepository) CountByKind(ctx context.Context, kind string) (int64, error) {
	return r.crud.Count(ctx, &models.FormSubmission{}, map[string]interface{}{
		constants.ColumnKind: kind,
	})
}
