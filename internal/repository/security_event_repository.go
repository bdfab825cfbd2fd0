// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/database"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// SecurityEventRepository defines methods for the security audit trail.
type SecurityEventRepository interface {
	// Create stores a new security event.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation
	//   - event: The event to store, with its ID already assigned
	//
	// Returns:
	//   - Error if the operation fails
	Create(ctx context.Context, event *models.SecurityEvent) error

	// List retrieves events matching the filter, newest first.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation
	//   - filter: Type, time and pagination constraints
	//
	// Returns:
	//   - The matching events
	//   - The total number of matching events, ignoring pagination
	//   - Error if the operation fails
	List(ctx context.Context, filter models.SecurityEventFilter) ([]*models.SecurityEvent, int, error)

	// CountByType counts events per type created at or after since.
	CountByType(ctx context.Context, since time.Time) ([]models.SecurityEventCount, error)

	// DeleteOlderThan removes events created before cutoff and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLSecurityEventRepository implements SecurityEventRepository on MySQL or PostgreSQL.
type SQLSecurityEventRepository struct {
	db   *database.Pool
	crud *database.CRUD
}

// NewSecurityEventRepository creates a new SecurityEventRepository.
//
// Parameters:
//   - db: Database connection pool
//
// Returns:
//   - An implementation of SecurityEventRepository
func NewSecurityEventRepository(db *database.Pool) SecurityEventRepository {
	return &SQLSecurityEventRepository{
		db:   db,
		crud: database.NewCRUD(db),
	}
}

// Create stores a new security event.
func (r *SQLSecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) error {
	startTime := time.Now()

	err := r.crud.Create(ctx, event)

	utils.LogDBQuery(
		"INSERT INTO "+constants.TableSecurityEvents,
		[]interface{}{event.ID, event.Type, event.Route, event.Method, event.IdentityHash, event.Detail, event.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to create security event: %w", err)
	}

	return nil
}

// buildWhere renders the filter as a WHERE clause with ? placeholders.
func buildWhere(filter models.SecurityEventFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.Type)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves events matching the filter, newest first.
func (r *SQLSecurityEventRepository) List(ctx context.Context, filter models.SecurityEventFilter) ([]*models.SecurityEvent, int, error) {
	startTime := time.Now()

	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultAuditListLimit
	}
	if filter.Limit > constants.MaxPageSize {
		filter.Limit = constants.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where, args := buildWhere(filter)

	countQuery := r.db.Rebind("SELECT COUNT(*) FROM security_events" + where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count security events: %w", err)
	}

	query := r.db.Rebind(`
		SELECT id, event_type, route, method, identity_hash, detail, created_at
		FROM security_events` + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`)
	listArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, listArgs...)

	utils.LogDBQuery(query, listArgs, time.Since(startTime), err)

	if err != nil {
		return nil, 0, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0, filter.Limit)
	for rows.Next() {
		event := &models.SecurityEvent{}
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.Route,
			&event.Method,
			&event.IdentityHash,
			&event.Detail,
			&event.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan security event row: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating security event rows: %w", err)
	}

	return events, total, nil
}

// CountByType counts events per type created at or after since.
func (r *SQLSecurityEventRepository) CountByType(ctx context.Context, since time.Time) ([]models.SecurityEventCount, error) {
	startTime := time.Now()

	query := r.db.Rebind(`
		SELECT event_type, COUNT(*)
		FROM security_events
		WHERE created_at >= ?
		GROUP BY event_type
		ORDER BY event_type
	`)

	rows, err := r.db.QueryContext(ctx, query, since)

	utils.LogDBQuery(query, []interface{}{since}, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to count security events by type: %w", err)
	}
	defer rows.Close()

	var counts []models.SecurityEventCount
	for rows.Next() {
		var c models.SecurityEventCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan security event count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security event counts: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes events created before cutoff.
func (r *SQLSecurityEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	startTime := time.Now()

	query := r.db.Rebind(`DELETE FROM security_events WHERE created_at < ?`)

	result, err := r.db.ExecContext(ctx, query, cutoff)

	utils.LogDBQuery(query, []interface{}{cutoff}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete old security events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
