// Package ratelimit implements fixed-window request counting per caller
// identity and route class.
//
// A Limiter maps a route class ("read", "form-submission") to a Rule and
// delegates the atomic check-and-increment to a Store. Two stores exist: an
// in-process sharded map for single-instance deployments and a Redis store for
// deployments with several instances sharing one budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// ErrInvalidRule is returned when a rule has a non-positive limit or window.
var ErrInvalidRule = errors.New("invalid rate limit rule")

// Rule is the budget of one route class: at most MaxAttempts requests per Window.
type Rule struct {
	MaxAttempts int
	Window      time.Duration
}

// Validate checks that the rule can be enforced.
func (r Rule) Validate() error {
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidRule, r.MaxAttempts)
	}
	if r.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidRule, r.Window)
	}
	return nil
}

// Decision is the outcome of one check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time left until the window resets. Only set when denied.
	RetryAfter time.Duration
	ResetAt    time.Time
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1
// for a denied decision and 0 otherwise.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts hits per key. Hit must be atomic per key: a hit is counted only
// when it is allowed, so the counter never exceeds rule.MaxAttempts.
type Store interface {
	Hit(ctx context.Context, key string, rule Rule) (Decision, error)
	Close() error
}

// DefaultRules returns the built-in budgets: 100 reads per minute and 5 form
// submissions per hour.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		constants.RouteClassRead: {
			MaxAttempts: constants.DefaultReadMaxAttempts,
			Window:      constants.DefaultReadWindow,
		},
		constants.RouteClassFormSubmission: {
			MaxAttempts: constants.DefaultFormSubmissionMaxAttempts,
			Window:      constants.DefaultFormSubmissionWindow,
		},
	}
}

// Options configures a Limiter.
type Options struct {
	// Rules maps route classes to budgets. Nil selects DefaultRules.
	Rules map[string]Rule
	// DefaultClass is used for classes missing from Rules.
	DefaultClass string
	// KeyPrefix namespaces store keys.
	KeyPrefix string
	// FailOpen allows requests when the store fails instead of returning the error.
	FailOpen bool
}

// Limiter enforces per-class budgets on top of a Store.
type Limiter struct {
	store        Store
	rules        map[string]Rule
	defaultClass string
	prefix       string
	failOpen     bool
}

// NewLimiter creates a limiter.
//
// Parameters:
//   - store: The counter backend
//   - opts: Rules and behavior on store failure
//
// Returns:
//   - A configured limiter, or an error if a rule is invalid or the default class is unknown
func NewLimiter(store Store, opts Options) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("rate limit store is required")
	}

	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	for class, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("class %q: %w", class, err)
		}
	}

	defaultClass := opts.DefaultClass
	if defaultClass == "" {
		defaultClass = constants.RouteClassRead
	}
	if _, ok := rules[defaultClass]; !ok {
		return nil, fmt.Errorf("default class %q has no rule", defaultClass)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = constants.DefaultRateLimitPrefix
	}

	return &Limiter{
		store:        store,
		rules:        rules,
		defaultClass: defaultClass,
		prefix:       prefix,
		failOpen:     opts.FailOpen,
	}, nil
}

// Rule returns the effective class and rule for class, falling back to the
// default class.
func (l *Limiter) Rule(class string) (string, Rule) {
	if rule, ok := l.rules[class]; ok {
		return class, rule
	}
	return l.defaultClass, l.rules[l.defaultClass]
}

// Key builds the store key for an identity within a class.
func (l *Limiter) Key(identity, class string) string {
	return strings.Join([]string{l.prefix, class, identity}, ":")
}

// Check counts one request for (identity, class) and reports whether it is allowed.
func (l *Limiter) Check(ctx context.Context, identity, class string) (Decision, error) {
	class, rule := l.Rule(class)

	decision, err := l.store.Hit(ctx, l.Key(identity, class), rule)
	if err != nil {
		if l.failOpen {
			log.Warn().
				Err(err).
				Str("class", class).
				Msg("Rate limit store unavailable, failing open")
			return Decision{
				Allowed:   true,
				Limit:     rule.MaxAttempts,
				Remaining: rule.MaxAttempts,
			}, nil
		}
		return Decision{}, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return decision, nil
}

// Close releases the store.
func (l *Limiter) Close() error {
	return l.store.Close()
}
