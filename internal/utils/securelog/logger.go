package securelog

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context carries the optional request metadata attached to an entry.
type Context struct {
	RequestID string
	UserID    string
	Route     string
	Method    string
}

// Entry is a sanitized log record. It is built once per event and never
// modified after construction.
type Entry struct {
	Level     zerolog.Level
	Message   string
	Data      map[string]any
	Timestamp time.Time
	Context   Context
}

// Logger emits sanitized entries through zerolog.
type Logger struct {
	zl       zerolog.Logger
	redactor *Redactor
	now      func() time.Time
}

// New creates a Logger writing to zl. A nil redactor selects the default one.
func New(zl zerolog.Logger, redactor *Redactor) *Logger {
	if redactor == nil {
		redactor = defaultRedactor
	}
	return &Logger{zl: zl, redactor: redactor, now: time.Now}
}

// L returns a Logger bound to the current global zerolog logger.
func L() *Logger {
	return New(log.Logger, nil)
}

// NewEntry builds a sanitized entry. The caller's data map is not modified.
func (l *Logger) NewEntry(level zerolog.Level, msg string, data map[string]any, ctx Context) Entry {
	return Entry{
		Level:     level,
		Message:   l.redactor.SanitizeString(msg),
		Data:      l.redactor.SanitizeFields(data),
		Timestamp: l.now().UTC(),
		Context: Context{
			RequestID: ctx.RequestID,
			UserID:    ctx.UserID,
			Route:     l.redactor.SanitizeString(ctx.Route),
			Method:    ctx.Method,
		},
	}
}

// Log sanitizes data and the context, then emits the entry.
func (l *Logger) Log(level zerolog.Level, msg string, data map[string]any, ctx Context) {
	l.Emit(l.NewEntry(level, msg, data, ctx))
}

// Emit writes an already sanitized entry.
func (l *Logger) Emit(e Entry) {
	event := l.zl.WithLevel(e.Level)
	if event == nil {
		return
	}
	if e.Context.RequestID != "" {
		event = event.Str("request_id", e.Context.RequestID)
	}
	if e.Context.UserID != "" {
		event = event.Str("user_id", e.Context.UserID)
	}
	if e.Context.Route != "" {
		event = event.Str("route", e.Context.Route)
	}
	if e.Context.Method != "" {
		event = event.Str("method", e.Context.Method)
	}
	if len(e.Data) > 0 {
		event = event.Fields(e.Data)
	}
	event.Time("logged_at", e.Timestamp).Msg(e.Message)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, data map[string]any, ctx Context) {
	l.Log(zerolog.DebugLevel, msg, data, ctx)
}

// Info logs at info level.
func (l *Logger) Info(msg string, data map[string]any, ctx Context) {
	l.Log(zerolog.InfoLevel, msg, data, ctx)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, data map[string]any, ctx Context) {
	l.Log(zerolog.WarnLevel, msg, data, ctx)
}

// Error logs at error level. The error message is scrubbed like any string.
func (l *Logger) Error(msg string, err error, data map[string]any, ctx Context) {
	if err != nil {
		merged := make(map[string]any, len(data)+1)
		for k, v := range data {
			merged[k] = v
		}
		merged["error"] = err.Error()
		data = merged
	}
	l.Log(zerolog.ErrorLevel, msg, data, ctx)
}
