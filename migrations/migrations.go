// Package migrations provides a framework for database schema management.
//
// This package implements a migration system that allows for reliable, idempotent
// database schema creation. It tracks executed migrations in a dedicated
// migrations table and ensures all required tables exist before application startup.
//
// Every migration renders its DDL for the driver of the pool, MySQL or PostgreSQL.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/database"
)

// Migration represents a database migration.
// Each migration performs a specific schema change and is tracked
// to ensure it runs exactly once.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table affected by this migration, used for existence checks
	TableName string
	// RunSQL executes the migration SQL for driver within a transaction
	RunSQL func(ctx context.Context, tx *sql.Tx, driver string) error
}

// Migrator handles database migrations.
type Migrator struct {
	db *database.Pool
}

// NewMigrator creates a new migrator.
//
// Parameters:
//   - db: A database connection pool to use for migrations
//
// Returns:
//   - *Migrator: A configured migrator
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db: db,
	}
}

// RunMigrations creates missing tables and records their migrations.
//
// A migration whose table already exists is recorded without running. A
// recorded migration whose table went missing is run again.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during migration, nil if successful
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Str("driver", m.db.Driver).Msg("Running database migrations")
	startTime := time.Now()

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	executedMigrations, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	migrations := GetMigrations()
	migrationsRun, migrationsRecorded := 0, 0

	for _, migration := range migrations {
		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}
		executed := executedMigrations[migration.Name]

		switch {
		case !exists:
			if executed {
				log.Warn().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Table doesn't exist but should. Running migration to create it.")
			} else {
				log.Info().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Running migration")
			}
			if err := m.runMigration(ctx, migration, !executed); err != nil {
				return err
			}
			migrationsRun++

		case !executed:
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")
			if err := m.recordMigration(ctx, migration.Name, migration.Description); err != nil {
				return err
			}
			migrationsRecorded++
		}
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("migrations_recorded", migrationsRecorded).
		Int("total_migrations", len(migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	return nil
}

// createMigrationsTable creates the migrations table if it doesn't exist.
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			name VARCHAR(255) PRIMARY KEY,
			description TEXT,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// getExecutedMigrations returns the names of executed migrations.
func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	query := `SELECT name FROM migrations`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	migrations := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		migrations[name] = true
	}

	return migrations, rows.Err()
}

// runMigration runs a migration within a transaction, recording it when
// record is set. If the migration fails, the transaction is rolled back.
func (m *Migrator) runMigration(ctx context.Context, migration Migration, record bool) error {
	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := migration.RunSQL(ctx, tx, m.db.Driver); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
		if !record {
			return nil
		}

		query := m.db.Rebind(`INSERT INTO migrations (name, description) VALUES (?, ?)`)
		if _, err := tx.ExecContext(ctx, query, migration.Name, migration.Description); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// recordMigration records a migration as completed without running the SQL.
func (m *Migrator) recordMigration(ctx context.Context, name, description string) error {
	query := m.db.Rebind(`INSERT INTO migrations (name, description) VALUES (?, ?)`)
	if _, err := m.db.ExecContext(ctx, query, name, description); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the current database or schema.
func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	schema := "DATABASE()"
	if m.db.Driver == constants.DriverPostgres {
		schema = "current_schema()"
	}
	query := m.db.Rebind(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ` + schema + ` AND table_name = ?`)

	var count int
	if err := m.db.QueryRowContext(ctx, query, tableName).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetMigrations returns all migrations, in execution order.
func GetMigrations() []Migration {
	return []Migration{
		createSecurityEventsTable(),
		createFormSubmissionsTable(),
	}
}
