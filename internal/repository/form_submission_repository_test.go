package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

func newTestSubmission(t *testing.T) *models.FormSubmission {
	submission, err := models.NewFormSubmission(constants.SubmissionKindComplaint, &models.ComplaintRequest{
		Name:        "Louis Bernard",
		Email:       "louis@example.fr",
		Category:    "organisation",
		Description: "La salle de formation etait fermee a notre arrivee.",
		Consent:     true,
	}, "hash")
	require.NoError(t, err)
	return submission
}

func TestFormSubmissionRepository_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t, "mysql")
		defer cleanup()
		repo := NewFormSubmissionRepository(pool)
		submission := newTestSubmission(t)

		mock.ExpectExec(`INSERT INTO form_submissions \(id, kind, payload, identity_hash, created_at\) VALUES \(\?, \?, \?, \?, \?\)`).
			WithArgs(submission.ID, submission.Kind, submission.Payload, submission.IdentityHash, submission.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.Create(context.Background(), submission)

		// Assert
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate reference", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t, "mysql")
		defer cleanup()
		repo := NewFormSubmissionRepository(pool)
		submission := newTestSubmission(t)

		mock.ExpectExec("INSERT INTO form_submissions").
			WillReturnError(&mysql.MySQLError{Number: constants.MySQLErrorDuplicateEntry, Message: "Duplicate entry"})

		// Act
		err := repo.Create(context.Background(), submission)

		// Assert
		require.Error(t, err)
		var appErr *utils.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, constants.TypeConflict, appErr.Type())
	})

	t.Run("Database Error", func(t *testing.T) {
		// Arrange
		pool, mock, cleanup := setupDBMock(t, "postgres")
		defer cleanup()
		repo := NewFormSubmissionRepository(pool)

		mock.ExpectExec(`VALUES \(\$1, \$2, \$3, \$4, \$5\)`).WillReturnError(errors.New("connection reset"))

		// Act
		err := repo.Create(context.Background(), newTestSubmission(t))

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create form submission")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFormSubmissionRepository_CountByKind(t *testing.T) {
	// Arrange
	pool, mock, cleanup := setupDBMock(t, "mysql")
	defer cleanup()
	repo := NewFormSubmissionRepository(pool)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM form_submissions WHERE kind = \?`).
		WithArgs(constants.SubmissionKindContact).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	// Act
	count, err := repo.CountByKind(context.Background(), constants.SubmissionKindContact)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
