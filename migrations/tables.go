package migrations

import (
	"context"
	"database/sql"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// execAll runs statements in order, stopping at the first failure.
func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// createSecurityEventsTable creates the security_events table. Events are
// listed newest first, optionally filtered by type.
func createSecurityEventsTable() Migration {
	return Migration{
		Name:        "create_security_events_table",
		Description: "Creates the security_events table",
		TableName:   constants.TableSecurityEvents,
		RunSQL: func(ctx context.Context, tx *sql.Tx, driver string) error {
			if driver == constants.DriverPostgres {
				return execAll(ctx, tx,
					`CREATE TABLE IF NOT EXISTS security_events (
						id CHAR(36) PRIMARY KEY,
						event_type VARCHAR(64) NOT NULL,
						route VARCHAR(255) NOT NULL,
						method VARCHAR(10) NOT NULL,
						identity_hash CHAR(64) NOT NULL,
						detail TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_security_events_created_at ON security_events(created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_security_events_type_created_at ON security_events(event_type, created_at)`,
				)
			}

			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS security_events (
					id CHAR(36) PRIMARY KEY,
					event_type VARCHAR(64) NOT NULL,
					route VARCHAR(255) NOT NULL,
					method VARCHAR(10) NOT NULL,
					identity_hash CHAR(64) NOT NULL,
					detail TEXT NOT NULL,
					created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
					INDEX idx_security_events_created_at (created_at),
					INDEX idx_security_events_type_created_at (event_type, created_at)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			)
		},
	}
}

// createFormSubmissionsTable creates the form_submissions table
func createFormSubmissionsTable() Migration {
	return Migration{
		Name:        "create_form_submissions_table",
		Description: "Creates the form_submissions table",
		TableName:   constants.TableFormSubmissions,
		RunSQL: func(ctx context.Context, tx *sql.Tx, driver string) error {
			if driver == constants.DriverPostgres {
				return execAll(ctx, tx,
					`CREATE TABLE IF NOT EXISTS form_submissions (
						id CHAR(36) PRIMARY KEY,
						kind VARCHAR(32) NOT NULL,
						payload TEXT NOT NULL,
						identity_hash CHAR(64) NOT NULL,
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_form_submissions_kind_created_at ON form_submissions(kind, created_at)`,
				)
			}

			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS form_submissions (
					id CHAR(36) PRIMARY KEY,
					kind VARCHAR(32) NOT NULL,
					payload MEDIUMTEXT NOT NULL,
					identity_hash CHAR(64) NOT NULL,
					created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
					INDEX idx_form_submissions_kind_created_at (kind, created_at)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			)
		},
	}
}
