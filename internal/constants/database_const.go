// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines constants related to database structures,
// including table names, column names, and driver names.
package constants

// Table Names define the names of database tables used in the application.
const (
	// TableSecurityEvents stores the audit trail of gateway rejections.
	TableSecurityEvents = "security_events"

	// TableFormSubmissions stores accepted public form submissions.
	TableFormSubmissions = "form_submissions"

	// TableMigrations tracks executed migrations.
	TableMigrations = "migrations"
)

// Column Names define commonly used column names.
const (
	ColumnID           = "id"
	ColumnEventType    = "event_type"
	ColumnRoute        = "route"
	ColumnMethod       = "method"
	ColumnIdentityHash = "identity_hash"
	ColumnDetail       = "detail"
	ColumnKind         = "kind"
	ColumnPayload      = "payload"
	ColumnCreatedAt    = "created_at"
)

// Database drivers accepted by database.Connect.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// PostgreSQL connection string parameters
const (
	PostgresSSLDisable = "disable"
	PostgresSSLRequire = "require"

	// PostgresConnectTimeout is the connect_timeout, in seconds, of postgres DSNs.
	PostgresConnectTimeout = 15
)
