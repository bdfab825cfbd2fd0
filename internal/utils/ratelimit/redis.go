package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// fixedWindowScript counts a hit only when it is allowed and starts the
// window expiry on the first hit. The whole script runs atomically in Redis.
// Returns: [allowed (0/1), count, ttl in ms]
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', key) or '0')
local allowed = 0
if count < limit then
    count = redis.call('INCR', key)
    if count == 1 then
        redis.call('PEXPIRE', key, window)
    end
    allowed = 1
end

local ttl = redis.call('PTTL', key)
if ttl < 0 then
    redis.call('PEXPIRE', key, window)
    ttl = window
end

return {allowed, count, ttl}
`)

// RedisStore keeps fixed windows in Redis so that every instance shares the
// same budget.
type RedisStore struct {
	client  redis.Scripter
	timeout time.Duration
	now     func() time.Time
}

// RedisStoreConfig holds config for creating a RedisStore.
type RedisStoreConfig struct {
	Client redis.Scripter
	// Timeout bounds each round trip; zero selects the Redis read timeout default.
	Timeout time.Duration
}

// NewRedisStore creates a Redis-backed store. The client is owned by the caller.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.RedisReadTimeout
	}
	return &RedisStore{
		client:  cfg.Client,
		timeout: cfg.Timeout,
		now:     time.Now,
	}, nil
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, rule Rule) (Decision, error) {
	if err := rule.Validate(); err != nil {
		return Decision{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := fixedWindowScript.Run(ctx, s.client,
		[]string{key},
		rule.MaxAttempts,
		rule.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(result) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	return decisionFromScript(result, rule, s.now()), nil
}

// decisionFromScript converts the script reply into a Decision.
func decisionFromScript(result []int64, rule Rule, now time.Time) Decision {
	allowed := result[0] == 1
	count := int(result[1])
	ttl := time.Duration(result[2]) * time.Millisecond
	resetAt := now.Add(ttl)

	remaining := rule.MaxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     rule.MaxAttempts,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !allowed {
		d.RetryAfter = ttl
	}
	return d
}

// Close implements Store. The Redis client is closed by its owner.
func (s *RedisStore) Close() error {
	return nil
}
