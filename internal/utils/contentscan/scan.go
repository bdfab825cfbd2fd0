// Package contentscan detects malicious-content signatures in decoded request
// payloads. Findings carry the field path and the signature type only, never
// the matched text, so they can be logged as is.
package contentscan

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"

	"github.com/corazawaf/libinjection-go"
)

// Signature types reported in findings.
const (
	TypeSQLInjection  = "sql_injection"
	TypeScriptTag     = "script_tag"
	TypeJavaScriptURI = "javascript_uri"
	TypeEventHandler  = "event_handler"
	TypeEvalCall      = "eval_call"
	TypeXSS           = "xss"
)

// Finding is one signature matched in one field.
type Finding struct {
	Field string `json:"field"`
	Type  string `json:"type"`
}

type signature struct {
	kind    string
	pattern *regexp.Regexp
}

var signatures = []signature{
	{TypeSQLInjection, regexp.MustCompile(`(?i)\b(union\s+(all\s+)?select|select\s+(\*|[\w.]+(\s*,\s*[\w.]+)+)\s+from|insert\s+into|drop\s+(table|database)|delete\s+from|update\s+\w+\s+set|truncate\s+table)\b`)},
	{TypeScriptTag, regexp.MustCompile(`(?i)<\s*/?\s*script`)},
	{TypeJavaScriptURI, regexp.MustCompile(`(?i)javascript\s*:`)},
	{TypeEventHandler, regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)},
	{TypeEvalCall, regexp.MustCompile(`(?i)\beval\s*\(`)},
}

// ScanString returns the signature types found in s, at most once each.
func ScanString(s string) []string {
	if s == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var types []string
	add := func(kind string) {
		if _, ok := seen[kind]; ok {
			return
		}
		seen[kind] = struct{}{}
		types = append(types, kind)
	}

	for _, sig := range signatures {
		if sig.pattern.MatchString(s) {
			add(sig.kind)
		}
	}
	if ok, _ := libinjection.IsSQLi(s); ok {
		add(TypeSQLInjection)
	}
	if libinjection.IsXSS(s) {
		add(TypeXSS)
	}

	return types
}

// Scan walks every string in v and returns the findings. Structs are
// inspected through their JSON form so field paths match the wire names.
func Scan(v any) []Finding {
	var findings []Finding
	walk("", normalize(v), &findings)
	return findings
}

// Types returns the sorted distinct types of findings.
func Types(findings []Finding) []string {
	set := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		set[f.Type] = struct{}{}
	}
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// normalize converts values that are not plain JSON trees into one.
func normalize(v any) any {
	switch v.(type) {
	case nil, string, map[string]any, []any, map[string]string, []string:
		return v
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func walk(path string, v any, findings *[]Finding) {
	switch val := v.(type) {
	case string:
		for _, kind := range ScanString(val) {
			*findings = append(*findings, Finding{Field: path, Type: kind})
		}
	case map[string]any:
		for _, k := range sortedKeys(val) {
			walk(join(path, k), val[k], findings)
		}
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(join(path, k), val[k], findings)
		}
	case []any:
		for i, item := range val {
			walk(path+"["+strconv.Itoa(i)+"]", item, findings)
		}
	case []string:
		for i, item := range val {
			walk(path+"["+strconv.Itoa(i)+"]", item, findings)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
