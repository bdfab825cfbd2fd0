package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Table represents a database table with common methods
type Table interface {
	TableName() string
}

// CRUD provides generic database operations for any model
type CRUD struct {
	DB *Pool
}

// NewCRUD creates a new CRUD instance with the given database pool
func NewCRUD(db *Pool) *CRUD {
	return &CRUD{DB: db}
}

// columns extracts the db-tagged columns of a struct pointer in field order.
func columns(model Table) ([]string, []interface{}, error) {
	modelValue := reflect.ValueOf(model)
	if modelValue.Kind() != reflect.Ptr || modelValue.Elem().Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model for %s must be a pointer to a struct", model.TableName())
	}
	modelValue = modelValue.Elem()
	modelType := modelValue.Type()

	var fields []string
	var values []interface{}
	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}
		fields = append(fields, dbTag)
		values = append(values, modelValue.Field(i).Interface())
	}

	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("model for %s has no db columns", model.TableName())
	}
	return fields, values, nil
}

// Create inserts a new record into the database. Identifiers are assigned
// by the caller so the same statement works on every driver.
func (c *CRUD) Create(ctx context.Context, model Table) error {
	fields, values, err := columns(model)
	if err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	query := c.DB.Rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		model.TableName(),
		strings.Join(fields, ", "),
		placeholders,
	))

	// Values may carry user input, only their count is logged
	log.Debug().
		Str("table", model.TableName()).
		Int("arg_count", len(values)).
		Msg("Creating database record")

	if _, err := c.DB.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to create record in %s: %w", model.TableName(), err)
	}

	return nil
}

// Count gets the count of records in a table with optional equality conditions
func (c *CRUD) Count(ctx context.Context, model Table, conditions map[string]interface{}) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", model.TableName())

	var args []interface{}
	if len(conditions) > 0 {
		keys := make([]string, 0, len(conditions))
		for k := range conditions {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		where := make([]string, 0, len(keys))
		for _, k := range keys {
			where = append(where, k+" = ?")
			args = append(args, conditions[k])
		}
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := c.DB.QueryRowContext(ctx, c.DB.Rebind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records in %s: %w", model.TableName(), err)
	}

	return count, nil
}
