package policy

import (
	"fmt"
	"sync"
	"time"

	"github.com/jsonatomic/ledger/pkg/atomic"
)

// ThrottleStore abstracts the storage backing a ThrottlePolicy's per-key
// fixed windows, so the in-process map (default) and the optional Redis
// backend (C15, RedisThrottleStore) are interchangeable.
type ThrottleStore interface {
	// Allow admits or denies one request against key's window as of now,
	// resetting the window if it has elapsed (spec §4.7: "reset window if
	// now - window_start > window_ms; deny when count >= max; retry-after =
	// remaining window").
	Allow(key string, maxRequests int, window time.Duration, now time.Time) (allowed bool, retryAfter time.Duration)
}

// ThrottlePolicy denies atomics once a caller-supplied key exceeds
// MaxRequests within Window (spec §4.7, POLICY_THROTTLED). Grounded on the
// teacher's pkg/auth/ratelimit.go actor-keyed middleware, generalized from a
// token bucket to the spec's fixed-window reset-on-elapse counter, with an
// injectable clock via the Evaluate(now) parameter so replay (C10)
// reproduces identical admission decisions.
type ThrottlePolicy struct {
	Store       ThrottleStore
	MaxRequests int
	Window      time.Duration
}

func NewThrottlePolicy(store ThrottleStore, maxRequests int, window time.Duration) *ThrottlePolicy {
	return &ThrottlePolicy{Store: store, MaxRequests: maxRequests, Window: window}
}

func (p *ThrottlePolicy) Name() string { return "throttle" }

func (p *ThrottlePolicy) Evaluate(atom map[string]any, now time.Time) Decision {
	actor := atomic.StringField(atomic.MapField(atom, "did"), "actor")
	if actor == "" {
		actor = "anonymous"
	}
	allowed, retryAfter := p.Store.Allow(actor, p.MaxRequests, p.Window, now)
	if allowed {
		return Decision{Allow: true}
	}
	return Decision{
		Allow:        false,
		PolicyName:   p.Name(),
		Reason:       fmt.Sprintf("actor %s exceeded %d requests per %s", actor, p.MaxRequests, p.Window),
		RetryAfterMs: retryAfter.Milliseconds(),
	}
}

// InMemoryThrottleStore is the default ThrottleStore: one fixed window
// counter per key, guarded by a single mutex (spec §5: per-key state,
// bounded memory by key cardinality).
type InMemoryThrottleStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewInMemoryThrottleStore() *InMemoryThrottleStore {
	return &InMemoryThrottleStore{windows: map[string]*window{}}
}

func (s *InMemoryThrottleStore) Allow(key string, maxRequests int, win time.Duration, now time.Time) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) > win {
		w = &window{start: now, count: 0}
		s.windows[key] = w
	}
	return w.allow(maxRequests, win, now)
}

// window is a fixed admission window that resets wholesale once it has
// elapsed, per spec §4.7's "reset window if now - window_start > window_ms"
// (not a sliding/rolling window: the count is reset to zero, not decayed).
type window struct {
	start time.Time
	count int
}

func (w *window) allow(maxRequests int, win time.Duration, now time.Time) (bool, time.Duration) {
	if w.count >= maxRequests {
		retryAfter := win - now.Sub(w.start)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}
	w.count++
	return true, 0
}
