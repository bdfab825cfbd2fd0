package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/database"
)

// setupDBMock creates a new mock database and pool for testing
func setupDBMock(t *testing.T, driver string) (*database.Pool, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")

	pool := database.NewPool(db, driver)

	return pool, mock, func() {
		db.Close()
	}
}
