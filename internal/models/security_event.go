// Package models provides data structures representing entities in the application.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils/securelog"
)

// SecurityEvent is one entry of the audit trail written when the gateway
// rejects a request.
type SecurityEvent struct {
	// ID is a random UUID assigned at construction
	ID string `json:"id" db:"id"`

	// Type is the rejection type, identical to the error.type sent to the client
	Type string `json:"type" db:"event_type"`

	// Route is the request path
	Route string `json:"route" db:"route"`

	// Method is the HTTP method
	Method string `json:"method" db:"method"`

	// IdentityHash is the keyed hash of the rate limit identity, never the raw IP or user ID
	IdentityHash string `json:"identity_hash" db:"identity_hash"`

	// Detail is a sanitized JSON object describing the rejection
	Detail string `json:"detail" db:"detail"`

	// CreatedAt is when the rejection happened
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the SecurityEvent model.
func (e *SecurityEvent) TableName() string {
	return constants.TableSecurityEvents
}

// NewSecurityEvent creates an audit entry. The detail map is sanitized before
// being encoded, so it may be built straight from request data.
//
// Parameters:
//   - eventType: One of the rejection types
//   - route: The request path
//   - method: The HTTP method
//   - identityHash: The hashed caller identity
//   - detail: Extra context (reason, pattern types, retry delay)
//
// Returns:
//   - A new SecurityEvent ready to be persisted
func NewSecurityEvent(eventType, route, method, identityHash string, detail map[string]any) *SecurityEvent {
	encoded := "{}"
	if len(detail) > 0 {
		if raw, err := json.Marshal(securelog.Sanitize(detail)); err == nil {
			encoded = string(raw)
		}
	}

	return &SecurityEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Route:        securelog.SanitizeString(route),
		Method:       method,
		IdentityHash: identityHash,
		Detail:       encoded,
		CreatedAt:    time.Now().UTC(),
	}
}

// DetailMap decodes the stored detail. Malformed detail yields an empty map.
func (e *SecurityEvent) DetailMap() map[string]any {
	out := map[string]any{}
	if e.Detail == "" {
		return out
	}
	if err := json.Unmarshal([]byte(e.Detail), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// SecurityEventFilter narrows an audit trail listing.
type SecurityEventFilter struct {
	// Type restricts the listing to one rejection type when set
	Type string

	// Since excludes events created before it when non-zero
	Since time.Time

	Limit  int
	Offset int
}

// SecurityEventCount is one row of the per-type summary.
type SecurityEventCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// SecurityEventSummary aggregates the audit trail since a point in time.
type SecurityEventSummary struct {
	Since  time.Time            `json:"since"`
	Total  int64                `json:"total"`
	ByType []SecurityEventCount `json:"by_type"`
}
