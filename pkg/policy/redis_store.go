package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottleStore is the optional distributed backend for ThrottlePolicy
// (C15), for deployments running more than one process against the same
// ledger. Grounded on the teacher's pkg/kernel/limiter_redis.go Lua-script
// idiom (atomic read-modify-write of rate-limit state via EVAL), reworked
// from a token bucket into the spec's fixed-window reset-on-elapse counter
// and taking an injected `now` instead of calling time.Now() internally so
// it remains replay-deterministic when a fixed clock is threaded through
// (C10).
type RedisThrottleStore struct {
	client *redis.Client
	ctx    context.Context
}

var redisWindowCounterScript = redis.NewScript(`
local key = KEYS[1]
local max_requests = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "count", "window_start")
local count = tonumber(state[1])
local window_start = tonumber(state[2])

if not count or not window_start or (now_ms - window_start) > window_ms then
    count = 0
    window_start = now_ms
end

local allowed = 0
if count < max_requests then
    count = count + 1
    allowed = 1
end

redis.call("HMSET", key, "count", count, "window_start", window_start)
redis.call("PEXPIRE", key, window_ms * 2)

return {allowed, window_start}
`)

// NewRedisThrottleStore connects to a Redis instance for distributed
// throttle state. ctx bounds every script invocation.
func NewRedisThrottleStore(ctx context.Context, addr, password string, db int) *RedisThrottleStore {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisThrottleStore{client: client, ctx: ctx}
}

func (s *RedisThrottleStore) Allow(key string, maxRequests int, window time.Duration, now time.Time) (bool, time.Duration) {
	redisKey := fmt.Sprintf("ledger:throttle:%s", key)
	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	res, err := redisWindowCounterScript.Run(s.ctx, s.client, []string{redisKey}, maxRequests, windowMs, nowMs).Result()
	if err != nil {
		// Fail open: a distributed-state outage should not halt ingestion
		// (spec §9 favors availability for this optional backend).
		return true, 0
	}
	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return true, 0
	}
	allowed, _ := results[0].(int64)
	if allowed == 1 {
		return true, 0
	}
	windowStart, _ := results[1].(int64)
	retryAfter := time.Duration(windowMs-(nowMs-windowStart)) * time.Millisecond
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter
}

// RedisBreakerStore is the optional distributed backend for
// CircuitBreakerPolicy (C15), mirroring InMemoryBreakerStore's semantics
// through Redis hashes shared across processes.
type RedisBreakerStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisBreakerStore(ctx context.Context, addr, password string, db int) *RedisBreakerStore {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisBreakerStore{client: client, ctx: ctx}
}

func (s *RedisBreakerStore) key(name string) string { return fmt.Sprintf("ledger:breaker:%s", name) }

func (s *RedisBreakerStore) State(name string, now time.Time) (BreakerState, time.Time) {
	res, err := s.client.HMGet(s.ctx, s.key(name), "state", "broken_until").Result()
	if err != nil || len(res) != 2 || res[0] == nil {
		return BreakerClosed, time.Time{}
	}
	state, _ := res[0].(string)
	var brokenUntil time.Time
	if ts, ok := res[1].(string); ok && ts != "" {
		if unix, perr := parseUnixSeconds(ts); perr == nil {
			brokenUntil = time.Unix(unix, 0).UTC()
		}
	}
	if BreakerState(state) == BreakerOpen && !now.Before(brokenUntil) {
		s.client.HSet(s.ctx, s.key(name), "state", string(BreakerHalfOpen))
		return BreakerHalfOpen, brokenUntil
	}
	return BreakerState(state), brokenUntil
}

func (s *RedisBreakerStore) RecordSuccess(name string, now time.Time) {
	s.client.HSet(s.ctx, s.key(name), "state", string(BreakerClosed), "failures", 0)
}

func (s *RedisBreakerStore) RecordFailure(name string, threshold int, resetAfter time.Duration, now time.Time) {
	k := s.key(name)
	failures, _ := s.client.HIncrBy(s.ctx, k, "failures", 1).Result()
	if int(failures) >= threshold {
		s.client.HSet(s.ctx, k, "state", string(BreakerOpen), "broken_until", now.Add(resetAfter).Unix())
	}
}

func parseUnixSeconds(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
