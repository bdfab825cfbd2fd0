// Package utils provides the shared response, error, validation and logging
// helpers used throughout the application.
package utils

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// TruncateString truncates a string to the given maximum length and adds ellipsis if necessary.
// The cut never splits a multi-byte character.
//
// Parameters:
//   - s: the string to truncate
//   - maxLen: the maximum length in bytes of the resulting string (including ellipsis if added)
//
// Returns:
//   - the truncated string, with ellipsis appended if truncation occurred
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", max(maxLen, 0))
	}

	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// ContainsString checks if a slice of strings contains a specific string.
//
// Parameters:
//   - slice: the slice of strings to search
//   - str: the string to look for
//
// Returns:
//   - true if the string is found in the slice, false otherwise
func ContainsString(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

// ParseSinceParam reads a lower time bound from the query string. It accepts
// an RFC 3339 timestamp or a Go duration counted back from now ("24h").
// A missing parameter returns the zero time.
func ParseSinceParam(r *http.Request, name string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return time.Time{}, NewValidationError(name, fmt.Sprintf("%s must be an RFC 3339 time or a positive duration", name))
	}
	return now.Add(-d).UTC(), nil
}
