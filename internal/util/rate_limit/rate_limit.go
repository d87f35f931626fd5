package rate_limit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
	"golang.org/x/time/rate"
)

type RateLimitResult struct {
	Allowed       bool      `json:"allowed"`
	Remaining     int       `json:"remaining"`
	ResetTime     time.Time `json:"resetTime"`
	RetryAfterSec int       `json:"retryAfterSec,omitempty"`
}

// RateLimiter consumes one token for key.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string) (*RateLimitResult, error)
}

const (
	defaultTimeout = 5 * time.Second
	keyPrefix      = "rate_limit:client:"
	idleTTL        = 5 * time.Minute
)

// LocalRateLimiter keeps one token bucket per key in process memory.
type LocalRateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*localBucket
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalRateLimiter(rps float64, burst int) *LocalRateLimiter {
	return &LocalRateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*localBucket),
	}
}

func (r *LocalRateLimiter) CheckRateLimit(_ context.Context, key string) (*RateLimitResult, error) {
	now := time.Now()

	r.mu.Lock()
	bucket, ok := r.buckets[key]
	if !ok {
		bucket = &localBucket{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.buckets[key] = bucket
	}
	bucket.lastSeen = now
	r.evictIdle(now)
	r.mu.Unlock()

	allowed := bucket.limiter.AllowN(now, 1)
	tokens := bucket.limiter.TokensAt(now)

	result := &RateLimitResult{
		Allowed:   allowed,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetTime: now.Add(timeToFull(tokens, float64(r.burst), float64(r.rps))),
	}

	if !allowed {
		result.RetryAfterSec = retryAfter(float64(r.rps))
	}

	return result, nil
}

// evictIdle drops buckets that have refilled completely. Caller holds mu.
func (r *LocalRateLimiter) evictIdle(now time.Time) {
	for key, bucket := range r.buckets {
		if now.Sub(bucket.lastSeen) > idleTTL {
			delete(r.buckets, key)
		}
	}
}

// ValkeyRateLimiter shares buckets between instances.
type ValkeyRateLimiter struct {
	client   valkey.Client
	rpsLimit int
	burst    int
}

// Lua script for token bucket rate limiting
// This script atomically:
// 1. Gets current token count and last refill time
// 2. Calculates tokens to add based on time elapsed
// 3. Checks if request can be allowed
// 4. Updates token count and timestamp
const tokenBucketLuaScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rps_limit = tonumber(ARGV[2])
local burst_limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local current = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(current[1]) or burst_limit
local last_refill = tonumber(current[2]) or now

local elapsed = math.max(0, now - last_refill)
local tokens_to_add = math.floor(elapsed * rps_limit / 1000)
tokens = math.min(burst_limit, tokens + tokens_to_add)

local allowed = 0
local remaining = tokens
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
    remaining = tokens
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill', now)
redis.call('EXPIRE', key, ttl)

local time_to_full = 0
if tokens < burst_limit then
    time_to_full = math.ceil((burst_limit - tokens) * 1000 / rps_limit)
end

return {allowed, remaining, time_to_full}
`

func NewValkeyRateLimiter(client valkey.Client, rps float64, burst int) *ValkeyRateLimiter {
	return &ValkeyRateLimiter{
		client:   client,
		rpsLimit: max(1, int(math.Ceil(rps))),
		burst:    burst,
	}
}

func (r *ValkeyRateLimiter) CheckRateLimit(ctx context.Context, key string) (*RateLimitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UnixMilli()

	result := r.client.Do(ctx, r.client.B().Eval().
		Script(tokenBucketLuaScript).
		Numkeys(1).
		Key(keyPrefix+key).
		Arg(fmt.Sprintf("%d", now)).
		Arg(fmt.Sprintf("%d", r.rpsLimit)).
		Arg(fmt.Sprintf("%d", r.burst)).
		Arg(fmt.Sprintf("%d", int64(idleTTL.Seconds()))).
		Build())

	if result.Error() != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", result.Error())
	}

	values, err := result.AsIntSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate limit result: %w", err)
	}

	if len(values) < 3 {
		return nil, fmt.Errorf("invalid rate limit result: expected 3 values, got %d", len(values))
	}

	allowed := values[0] == 1

	limitResult := &RateLimitResult{
		Allowed:   allowed,
		Remaining: int(values[1]),
		ResetTime: time.Now().Add(time.Duration(values[2]) * time.Millisecond),
	}

	if !allowed {
		limitResult.RetryAfterSec = retryAfter(float64(r.rpsLimit))
	}

	return limitResult, nil
}

func (r *ValkeyRateLimiter) ResetRateLimit(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.client.Do(ctx, r.client.B().Del().Key(keyPrefix+key).Build()).Error()
}

func timeToFull(tokens, burst, rps float64) time.Duration {
	if tokens >= burst || rps <= 0 {
		return 0
	}

	return time.Duration(math.Ceil((burst-tokens)*1000/rps)) * time.Millisecond
}

// retryAfter suggests enough time for at least one token, never under a second.
func retryAfter(rps float64) int {
	if rps <= 0 {
		return 1
	}

	return max(1, int(math.Ceil(1/rps)))
}
