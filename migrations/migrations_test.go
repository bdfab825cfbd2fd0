package migrations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/database"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/migrations"
)

const (
	mysqlTableExistsQuery    = `SELECT COUNT\(\*\) FROM information_schema.tables WHERE table_schema = DATABASE\(\) AND table_name = \?`
	postgresTableExistsQuery = `SELECT COUNT\(\*\) FROM information_schema.tables WHERE table_schema = current_schema\(\) AND table_name = \$1`
)

// createMockPool creates a mock database pool for testing
func createMockPool(t *testing.T, driver string) (*database.Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewPool(db, driver), mock
}

func TestNewMigrator(t *testing.T) {
	pool, _ := createMockPool(t, constants.DriverMySQL)

	assert.NotNil(t, migrations.NewMigrator(pool))
}

func TestGetMigrations(t *testing.T) {
	all := migrations.GetMigrations()

	require.Len(t, all, 2)
	tables := map[string]string{}
	for _, m := range all {
		assert.NotEmpty(t, m.Description)
		assert.NotNil(t, m.RunSQL)
		tables[m.Name] = m.TableName
	}
	assert.Equal(t, constants.TableSecurityEvents, tables["create_security_events_table"])
	assert.Equal(t, constants.TableFormSubmissions, tables["create_form_submissions_table"])
}

func TestRunMigrations(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		setup   func(sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name:   "Error - Create migrations table fails",
			driver: constants.DriverMySQL,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnError(errors.New("access denied"))
			},
			wantErr: "failed to create migrations table",
		},
		{
			name:   "Error - Get executed migrations fails",
			driver: constants.DriverMySQL,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnError(errors.New("connection lost"))
			},
			wantErr: "failed to get executed migrations",
		},
		{
			name:   "Error - Table exists check fails",
			driver: constants.DriverMySQL,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery(mysqlTableExistsQuery).
					WillReturnError(errors.New("connection lost"))
			},
			wantErr: "failed to check if table security_events exists",
		},
		{
			name:   "Success - Fresh MySQL database",
			driver: constants.DriverMySQL,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))

				mock.ExpectQuery(mysqlTableExistsQuery).WithArgs(constants.TableSecurityEvents).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS security_events").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO migrations \(name, description\) VALUES \(\?, \?\)`).
					WithArgs("create_security_events_table", "Creates the security_events table").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()

				mock.ExpectQuery(mysqlTableExistsQuery).WithArgs(constants.TableFormSubmissions).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS form_submissions").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("INSERT INTO migrations").
					WithArgs("create_form_submissions_table", "Creates the form_submissions table").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:   "Success - PostgreSQL tables already exist",
			driver: constants.DriverPostgres,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("create_security_events_table"))

				// Recorded and present: nothing to do
				mock.ExpectQuery(postgresTableExistsQuery).WithArgs(constants.TableSecurityEvents).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

				// Present but unrecorded: record only
				mock.ExpectQuery(postgresTableExistsQuery).WithArgs(constants.TableFormSubmissions).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectExec(`INSERT INTO migrations \(name, description\) VALUES \(\$1, \$2\)`).
					WithArgs("create_form_submissions_table", "Creates the form_submissions table").
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:   "Success - Recorded table went missing",
			driver: constants.DriverMySQL,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}).
						AddRow("create_security_events_table").
						AddRow("create_form_submissions_table"))

				mock.ExpectQuery(mysqlTableExistsQuery).WithArgs(constants.TableSecurityEvents).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS security_events").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()

				mock.ExpectQuery(mysqlTableExistsQuery).WithArgs(constants.TableFormSubmissions).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
		},
		{
			name:   "Error - Migration fails and rolls back",
			driver: constants.DriverMySQL,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery(mysqlTableExistsQuery).WithArgs(constants.TableSecurityEvents).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS security_events").
					WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback()
			},
			wantErr: "migration create_security_events_table failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			pool, mock := createMockPool(t, tt.driver)
			tt.setup(mock)

			// Act
			err := migrations.NewMigrator(pool).RunMigrations(context.Background())

			// Assert
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
