package policy

import (
	"fmt"
	"sync"
	"time"
)

// BreakerState is one of the three circuit-breaker states (spec §4.7).
type BreakerState string

const (
	BreakerClosed   BreakerState = "CLOSED"
	BreakerOpen     BreakerState = "OPEN"
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerStore abstracts the state backing a CircuitBreakerPolicy, so the
// in-process default and the optional Redis backend (C15) are
// interchangeable.
type BreakerStore interface {
	State(name string, now time.Time) (state BreakerState, brokenUntil time.Time)
	RecordSuccess(name string, now time.Time)
	RecordFailure(name string, threshold int, resetAfter time.Duration, now time.Time)
}

// CircuitBreakerPolicy denies atomics while the named circuit is OPEN
// (spec §4.7, POLICY_CIRCUIT_OPEN). Grounded on the teacher's
// pkg/util/resiliency/client.go CircuitBreaker, generalized to an
// injectable clock and pluggable state store, and to external
// RecordSuccess/RecordFailure mutators driven by downstream write outcomes
// rather than HTTP status codes.
type CircuitBreakerPolicy struct {
	CircuitName string
	Threshold   int
	ResetAfter  time.Duration
	Store       BreakerStore
}

func NewCircuitBreakerPolicy(name string, threshold int, resetAfter time.Duration, store BreakerStore) *CircuitBreakerPolicy {
	return &CircuitBreakerPolicy{CircuitName: name, Threshold: threshold, ResetAfter: resetAfter, Store: store}
}

func (p *CircuitBreakerPolicy) Name() string { return "breaker" }

func (p *CircuitBreakerPolicy) Evaluate(atom map[string]any, now time.Time) Decision {
	state, brokenUntil := p.Store.State(p.CircuitName, now)
	if state == BreakerOpen {
		return Decision{
			Allow:        false,
			PolicyName:   "breaker",
			Reason:       fmt.Sprintf("circuit %q is open until %s", p.CircuitName, brokenUntil.Format(time.RFC3339)),
			RetryAfterMs: brokenUntil.Sub(now).Milliseconds(),
		}
	}
	return Decision{Allow: true}
}

// RecordSuccess and RecordFailure let the caller feed downstream append
// outcomes back into the breaker's state after Evaluate has admitted an
// atomic (spec §4.7: the breaker tracks write failures, not policy
// evaluations themselves).
func (p *CircuitBreakerPolicy) RecordSuccess(now time.Time) {
	p.Store.RecordSuccess(p.CircuitName, now)
}

func (p *CircuitBreakerPolicy) RecordFailure(now time.Time) {
	p.Store.RecordFailure(p.CircuitName, p.Threshold, p.ResetAfter, now)
}

// InMemoryBreakerStore is the default BreakerStore.
type InMemoryBreakerStore struct {
	mu      sync.Mutex
	circuit map[string]*breakerCircuit
}

func NewInMemoryBreakerStore() *InMemoryBreakerStore {
	return &InMemoryBreakerStore{circuit: map[string]*breakerCircuit{}}
}

type breakerCircuit struct {
	state        BreakerState
	failureCount int
	brokenUntil  time.Time
}

func (s *InMemoryBreakerStore) get(name string) *breakerCircuit {
	c, ok := s.circuit[name]
	if !ok {
		c = &breakerCircuit{state: BreakerClosed}
		s.circuit[name] = c
	}
	return c
}

func (s *InMemoryBreakerStore) State(name string, now time.Time) (BreakerState, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(name)
	if c.state == BreakerOpen && !now.Before(c.brokenUntil) {
		c.state = BreakerHalfOpen
	}
	return c.state, c.brokenUntil
}

func (s *InMemoryBreakerStore) RecordSuccess(name string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(name)
	c.state = BreakerClosed
	c.failureCount = 0
}

func (s *InMemoryBreakerStore) RecordFailure(name string, threshold int, resetAfter time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(name)
	c.failureCount++
	if c.failureCount >= threshold {
		c.state = BreakerOpen
		c.brokenUntil = now.Add(resetAfter)
	}
}
