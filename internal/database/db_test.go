package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
)

// TestNilConnectionHandling tests handling of nil connections
func TestNilConnectionHandling(t *testing.T) {
	t.Run("Close with nil DB pointer", func(t *testing.T) {
		pool := &Pool{DB: nil}

		// This should not panic
		pool.Close()
	})

	t.Run("Close with nil pool", func(t *testing.T) {
		var pool *Pool

		// This should not panic
		pool.Close()
	})
}

// TestGet tests the Get function
func TestGet(t *testing.T) {
	// Backup and restore the global dbPool
	originalDBPool := dbPool
	defer func() {
		dbPool = originalDBPool
	}()

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mockPool := NewPool(mockDB, "postgres")
	dbPool = mockPool

	assert.Equal(t, mockPool, Get())
}

func TestNewPool(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	assert.Equal(t, "mysql", NewPool(mockDB, "").Driver)
	assert.Equal(t, "postgres", NewPool(mockDB, "postgres").Driver)
}

// TestClose tests the Close function
func TestClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	pool := NewPool(mockDB, "mysql")
	mock.ExpectClose()

	pool.Close()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		query    string
		expected string
	}{
		{
			name:     "MySQL keeps question marks",
			driver:   "mysql",
			query:    "SELECT * FROM security_events WHERE event_type = ? LIMIT ?",
			expected: "SELECT * FROM security_events WHERE event_type = ? LIMIT ?",
		},
		{
			name:     "Postgres numbers placeholders",
			driver:   "postgres",
			query:    "SELECT * FROM security_events WHERE event_type = ? LIMIT ? OFFSET ?",
			expected: "SELECT * FROM security_events WHERE event_type = $1 LIMIT $2 OFFSET $3",
		},
		{
			name:     "Postgres ignores quoted question marks",
			driver:   "postgres",
			query:    "SELECT '?' AS literal, id FROM form_submissions WHERE id = ?",
			expected: "SELECT '?' AS literal, id FROM form_submissions WHERE id = $1",
		},
		{
			name:     "No placeholders",
			driver:   "postgres",
			query:    "SELECT 1",
			expected: "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &Pool{Driver: tt.driver}
			assert.Equal(t, tt.expected, pool.Rebind(tt.query))
		})
	}

	t.Run("Nil pool returns query unchanged", func(t *testing.T) {
		var pool *Pool
		assert.Equal(t, "SELECT ?", pool.Rebind("SELECT ?"))
	})
}

// TestTransaction tests the Transaction function
func TestTransaction(t *testing.T) {
	funcErr := errors.New("function error")

	testCases := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		fn        func(tx *sql.Tx) error
		wantErr   error
		errSubstr string
	}{
		{
			name: "commit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
			fn: func(tx *sql.Tx) error { return nil },
		},
		{
			name: "begin failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("begin error"))
			},
			fn:        func(tx *sql.Tx) error { return nil },
			errSubstr: "failed to begin transaction",
		},
		{
			name: "function error rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:      func(tx *sql.Tx) error { return funcErr },
			wantErr: funcErr,
		},
		{
			name: "rollback failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(errors.New("rollback error"))
			},
			fn:        func(tx *sql.Tx) error { return funcErr },
			errSubstr: "failed to rollback transaction",
		},
		{
			name: "commit failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("commit error"))
			},
			fn:        func(tx *sql.Tx) error { return nil },
			errSubstr: "failed to commit transaction",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()
			tc.setup(mock)
			pool := NewPool(mockDB, "mysql")

			// Act
			err = pool.Transaction(context.Background(), tc.fn)

			// Assert
			switch {
			case tc.wantErr != nil:
				assert.Equal(t, tc.wantErr, err)
			case tc.errSubstr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errSubstr)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("panic rolls back and propagates", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("rollback error"))
		pool := NewPool(mockDB, "postgres")

		assert.PanicsWithValue(t, "boom", func() {
			_ = pool.Transaction(context.Background(), func(tx *sql.Tx) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHealthCheck(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		errSubstr string
	}{
		{
			name: "healthy",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			},
		},
		{
			name: "ping failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(errors.New("connection refused"))
			},
			errSubstr: "database health check failed",
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("query error"))
			},
			errSubstr: "database query test failed",
		},
		{
			name: "unexpected result",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(2))
			},
			errSubstr: "database returned unexpected result",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer mockDB.Close()
			tc.setup(mock)
			pool := NewPool(mockDB, "mysql")

			// Act
			err = pool.HealthCheck(context.Background())

			// Assert
			if tc.errSubstr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errSubstr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConnect(t *testing.T) {
	t.Run("Unknown driver", func(t *testing.T) {
		cfg := &config.AppConfig{}
		cfg.Database.Driver = "oracle"
		cfg.Database.Host = "localhost"
		cfg.Database.Port = 1521
		cfg.Database.Name = "audit"
		cfg.Database.User = "svc"

		pool, err := Connect(cfg)

		assert.Nil(t, pool)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to database")
	})
}

func TestQueryTimeout(t *testing.T) {
	ctx, cancel := QueryTimeout(context.Background())
	defer cancel()

	_, ok := ctx.Deadline()
	assert.True(t, ok)
}
