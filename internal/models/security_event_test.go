package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

func TestNewSecurityEvent(t *testing.T) {
	t.Run("Create with detail", func(t *testing.T) {
		// Arrange
		detail := map[string]any{
			"reason":   "missing_header",
			"patterns": []string{"script_tag"},
		}

		// Act
		event := NewSecurityEvent(constants.EventCSRFFailed, "/api/contact", "POST", "abc123", detail)

		// Assert
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, constants.EventCSRFFailed, event.Type)
		assert.Equal(t, "/api/contact", event.Route)
		assert.Equal(t, "POST", event.Method)
		assert.Equal(t, "abc123", event.IdentityHash)
		assert.False(t, event.CreatedAt.IsZero())
		assert.JSONEq(t, `{"reason":"missing_header","patterns":["script_tag"]}`, event.Detail)
	})

	t.Run("Create without detail", func(t *testing.T) {
		// Act
		event := NewSecurityEvent(constants.EventRateLimited, "/api/contact", "POST", "abc123", nil)

		// Assert
		assert.Equal(t, "{}", event.Detail)
		assert.Empty(t, event.DetailMap())
	})

	t.Run("Sensitive detail is redacted", func(t *testing.T) {
		// Arrange
		detail := map[string]any{
			"csrf_token": "s3cr3t-value",
			"note":       "sent by jean.dupont@example.fr",
		}

		// Act
		event := NewSecurityEvent(constants.EventCSRFFailed, "/api/contact", "POST", "h", detail)

		// Assert
		assert.NotContains(t, event.Detail, "s3cr3t-value")
		assert.NotContains(t, event.Detail, "jean.dupont@example.fr")
		assert.Contains(t, event.Detail, constants.LogRedactedValue)
	})

	t.Run("IDs are unique", func(t *testing.T) {
		a := NewSecurityEvent(constants.EventRateLimited, "/", "GET", "h", nil)
		b := NewSecurityEvent(constants.EventRateLimited, "/", "GET", "h", nil)

		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestSecurityEvent_DetailMap(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		expected map[string]any
	}{
		{name: "Valid JSON", detail: `{"reason":"token_mismatch"}`, expected: map[string]any{"reason": "token_mismatch"}},
		{name: "Empty", detail: "", expected: map[string]any{}},
		{name: "Malformed", detail: `{"reason":`, expected: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &SecurityEvent{Detail: tt.detail}
			require.NotNil(t, event.DetailMap())
			assert.Equal(t, tt.expected, event.DetailMap())
		})
	}
}

func TestSecurityEvent_TableName(t *testing.T) {
	assert.Equal(t, "security_events", (&SecurityEvent{}).TableName())
}
