package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	rulesType    = reflect.TypeOf(map[string]RateLimitRule{})
)

// LoadEnv overlays environment variables onto the config. Every field with an
// `env` tag is read, nested sections included. Variables that are not set
// leave the field untouched.
func LoadEnv(config *AppConfig) error {
	applied, err := applyEnv(reflect.ValueOf(config).Elem(), "")
	if err != nil {
		return err
	}

	// Names only, values may be secrets
	log.Debug().
		Strs("variables", applied).
		Msg("Environment overrides applied")

	return nil
}

// applyEnv walks a struct and returns the names of the variables it applied.
func applyEnv(val reflect.Value, path string) ([]string, error) {
	var applied []string
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := field.Name
		if path != "" {
			name = path + "." + field.Name
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			if fieldVal.Kind() == reflect.Struct {
				nested, err := applyEnv(fieldVal, name)
				if err != nil {
					return nil, err
				}
				applied = append(applied, nested...)
			}
			continue
		}

		raw, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}
		if err := setField(fieldVal, raw); err != nil {
			return nil, fmt.Errorf("invalid value for %s (%s): %w", envName, name, err)
		}
		applied = append(applied, envName)
	}

	return applied, nil
}

// setField parses raw into the field according to its type.
func setField(fieldVal reflect.Value, raw string) error {
	switch {
	case fieldVal.Type() == durationType:
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fieldVal.SetInt(int64(d))
		return nil
	case fieldVal.Type() == rulesType:
		rules, err := ParseRateLimitRules(raw)
		if err != nil {
			return err
		}
		fieldVal.Set(reflect.ValueOf(rules))
		return nil
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, fieldVal.Type().Bits())
		if err != nil {
			return err
		}
		fieldVal.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fieldVal.SetBool(b)
	case reflect.Slice:
		if fieldVal.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", fieldVal.Type())
		}
		fieldVal.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", fieldVal.Type())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank items.
func splitList(raw string) []string {
	values := make([]string, 0)
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// ParseRateLimitRules parses a rule list of the form
// "read=100/1m,form-submission=5/1h" into per-class budgets.
func ParseRateLimitRules(raw string) (map[string]RateLimitRule, error) {
	rules := make(map[string]RateLimitRule)
	for _, item := range splitList(raw) {
		class, budget, ok := strings.Cut(item, "=")
		class = strings.TrimSpace(class)
		if !ok || class == "" {
			return nil, fmt.Errorf("rule %q: expected class=attempts/window", item)
		}

		attempts, window, ok := strings.Cut(budget, "/")
		if !ok {
			return nil, fmt.Errorf("rule %q: expected attempts/window", item)
		}

		maxAttempts, err := strconv.Atoi(strings.TrimSpace(attempts))
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid attempts: %w", item, err)
		}
		d, err := time.ParseDuration(strings.TrimSpace(window))
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid window: %w", item, err)
		}

		rules[class] = RateLimitRule{MaxAttempts: maxAttempts, Window: d}
	}
	return rules, nil
}
