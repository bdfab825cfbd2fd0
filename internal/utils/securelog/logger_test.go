package securelog

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	t.Run("NewEntry sanitizes data, message and route", func(t *testing.T) {
		// Arrange
		l := New(zerolog.Nop(), nil)
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		l.now = func() time.Time { return fixed }
		data := map[string]any{"session_id": "abc", "course": "Excel"}

		// Act
		entry := l.NewEntry(zerolog.WarnLevel, "user a@b.com rejected", data, Context{
			RequestID: "req-1",
			Route:     "/api/contact/a@b.com",
			Method:    "POST",
		})

		// Assert
		assert.Equal(t, zerolog.WarnLevel, entry.Level)
		assert.Equal(t, "user [REDACTED] rejected", entry.Message)
		assert.Equal(t, "[REDACTED]", entry.Data["session_id"])
		assert.Equal(t, "Excel", entry.Data["course"])
		assert.Equal(t, "/api/contact/[REDACTED]", entry.Context.Route)
		assert.Equal(t, fixed, entry.Timestamp)
		assert.Equal(t, "abc", data["session_id"], "caller data must not be modified")
	})

	t.Run("Emit writes context fields", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		l := New(zerolog.New(&buf), nil)

		// Act
		l.Warn("CSRF validation failed", map[string]any{"reason": "missing_header"}, Context{
			RequestID: "req-1",
			UserID:    "42",
			Route:     "/api/contact",
			Method:    "POST",
		})

		// Assert
		entry := decodeLine(t, buf.String())
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "req-1", entry["request_id"])
		assert.Equal(t, "42", entry["user_id"])
		assert.Equal(t, "/api/contact", entry["route"])
		assert.Equal(t, "POST", entry["method"])
		assert.Equal(t, "missing_header", entry["reason"])
		assert.Equal(t, "CSRF validation failed", entry["message"])
	})

	t.Run("Error scrubs the error message", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(zerolog.New(&buf), nil)

		l.Error("insert failed", errors.New("duplicate entry a@b.com"), nil, Context{})

		entry := decodeLine(t, buf.String())
		assert.Equal(t, "duplicate entry [REDACTED]", entry["error"])
	})

	t.Run("Levels below the logger level are dropped", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(zerolog.New(&buf).Level(zerolog.InfoLevel), nil)

		l.Debug("noise", nil, Context{})

		assert.Empty(t, buf.String())
	})
}
