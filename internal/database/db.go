// Package database provides database access and management functions for the API.
// It implements a dialect-aware connection pool, transactions and a small
// reflection-based insert helper.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // Register the postgres driver
	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// Pool represents a database connection pool bound to one SQL dialect
type Pool struct {
	*sql.DB
	Driver string
}

var (
	// dbPool is the global database connection pool
	dbPool *Pool
)

// NewPool wraps an open handle. Queries written with ? placeholders are
// rebound for the driver.
func NewPool(db *sql.DB, driver string) *Pool {
	if driver == "" {
		driver = constants.DriverMySQL
	}
	return &Pool{DB: db, Driver: driver}
}

// Connect creates a new database connection pool
func Connect(cfg *config.AppConfig) (*Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DBConnectionTimeout)
	defer cancel()

	driver := cfg.Database.Driver
	if driver == "" {
		driver = constants.DefaultDBDriver
	}

	log.Info().
		Str("driver", driver).
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Name).
		Msg("Connecting to database")

	if driver == constants.DriverMySQL {
		if err := ensureMySQLDatabase(ctx, &cfg.Database); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBConnMaxIdleTime)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to database")

	dbPool = NewPool(db, driver)
	return dbPool, nil
}

// ensureMySQLDatabase creates the schema when it does not exist yet.
func ensureMySQLDatabase(ctx context.Context, settings *config.DatabaseSettings) error {
	rootCfg := mysql.NewConfig()
	rootCfg.User = settings.User
	rootCfg.Passwd = settings.Password
	rootCfg.Net = "tcp"
	rootCfg.Addr = fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	rootDB, err := sql.Open(constants.DriverMySQL, rootCfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to root database: %w", err)
	}
	defer rootDB.Close()

	name := strings.ReplaceAll(settings.Name, "`", "")
	if _, err := rootDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	log.Info().Str("database", name).Msg("Ensured database exists")
	return nil
}

// Get returns the global database connection pool
func Get() *Pool {
	if dbPool == nil {
		log.Fatal().Msg("database connection pool not initialized")
	}
	return dbPool
}

// Close closes the database connection pool
func (p *Pool) Close() {
	if p != nil && p.DB != nil {
		log.Info().Msg("Closing database connection pool")
		p.DB.Close()
	}
}

// Rebind converts ? placeholders to $n for postgres. Quoted literals are left alone.
func (p *Pool) Rebind(query string) string {
	if p == nil || p.Driver != constants.DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Transaction executes a function within a transaction
func (p *Pool) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Handle panics to ensure proper rollback
	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			// Re-throw the panic
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the database connection
func (p *Pool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Run a simple query to verify database functionality
	var result int
	if err := p.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("database returned unexpected result: %d", result)
	}

	return nil
}

// QueryTimeout returns a context bounded by the default query timeout
func QueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.DBQueryTimeout)
}
