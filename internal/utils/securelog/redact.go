// Package securelog provides redaction of personal and secret data in log output.
//
// Every value that reaches a log sink passes through a Redactor: map keys that
// look sensitive are replaced wholesale, and string values are scrubbed of email
// addresses, card-like digit runs and French phone numbers. The package also
// provides a zerolog output hook so that events written through the global
// logger are scrubbed in the same way.
package securelog

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// SensitiveKeys lists the substrings that mark a map key as sensitive. Matching
// is case-insensitive.
var SensitiveKeys = []string{
	"password", "token", "secret", "key", "auth", "credential", "session",
	"cookie", "email", "phone", "ssn", "card", "bank", "account",
}

// Patterns applied to every string value, in order.
var (
	// emailPattern matches email addresses anywhere in a string.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// cardPattern matches 13 to 19 digits, optionally grouped by single spaces or dashes.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

	// frenchPhonePattern matches 0X XX XX XX XX and +33 X XX XX XX XX forms.
	frenchPhonePattern = regexp.MustCompile(`(?:\+33\s?|0)[1-9](?:[\s.-]?\d{2}){4}`)
)

// Redactor masks sensitive keys and substrings. It holds no mutable state and
// is safe for concurrent use.
type Redactor struct {
	keys     []string
	patterns []*regexp.Regexp
	marker   string
	maxDepth int
}

var defaultRedactor = NewRedactor(SensitiveKeys)

// DefaultRedactor returns the shared redactor using SensitiveKeys and the
// built-in patterns.
func DefaultRedactor() *Redactor {
	return defaultRedactor
}

// NewRedactor creates a redactor for the given sensitive key substrings.
func NewRedactor(keys []string) *Redactor {
	lowered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Redactor{
		keys:     lowered,
		patterns: []*regexp.Regexp{emailPattern, cardPattern, frenchPhonePattern},
		marker:   constants.LogRedactedValue,
		maxDepth: constants.DefaultRedactionMaxDepth,
	}
}

// Marker returns the replacement text.
func (r *Redactor) Marker() string {
	return r.marker
}

// IsSensitiveKey reports whether a map key contains one of the sensitive substrings.
func (r *Redactor) IsSensitiveKey(key string) bool {
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// SanitizeString replaces every match of the built-in patterns with the marker.
func (r *Redactor) SanitizeString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.ReplaceAllString(s, r.marker)
	}
	return s
}

// Sanitize returns a redacted copy of v. Maps and slices are walked
// recursively, strings are scrubbed, errors are converted to their scrubbed
// message and every other type is returned unchanged. Sanitize never panics.
func (r *Redactor) Sanitize(v any) (out any) {
	defer func() {
		if rec := recover(); rec != nil {
			out = r.marker
		}
	}()
	return r.walk(v, 0)
}

// SanitizeFields is Sanitize for the common map case.
func (r *Redactor) SanitizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out, ok := r.Sanitize(fields).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return out
}

func (r *Redactor) walk(v any, depth int) any {
	if depth > r.maxDepth {
		return r.marker
	}

	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return r.SanitizeString(t)
	case json.Number:
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if r.IsSensitiveKey(k) {
				out[k] = r.marker
				continue
			}
			out[k] = r.walk(val, depth+1)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			if r.IsSensitiveKey(k) {
				out[k] = r.marker
				continue
			}
			out[k] = r.SanitizeString(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = r.walk(val, depth+1)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, val := range t {
			out[i] = r.SanitizeString(val)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, val := range t {
			m, _ := r.walk(val, depth+1).(map[string]any)
			out[i] = m
		}
		return out
	case error:
		return r.SanitizeString(t.Error())
	default:
		return v
	}
}

// Sanitize redacts v with the default redactor.
func Sanitize(v any) any {
	return defaultRedactor.Sanitize(v)
}

// SanitizeString redacts s with the default redactor.
func SanitizeString(s string) string {
	return defaultRedactor.SanitizeString(s)
}
