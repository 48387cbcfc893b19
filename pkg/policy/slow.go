package policy

import (
	"fmt"
	"time"
)

// SlowPolicy never denies: it annotates atomics whose processing clock lag
// exceeds Threshold with an advisory warning (spec §4.7 "advisory-only"
// stage), grounded on the teacher's pkg/governance/policy_engine.go
// "warn" policy kind that never contributes to the admission verdict.
type SlowPolicy struct {
	Threshold time.Duration
	// Since returns the time the atomic started being processed by the
	// caller (e.g. receipt time); if nil, the policy is a no-op.
	Since func(atom map[string]any) (time.Time, bool)
}

func NewSlowPolicy(threshold time.Duration, since func(atom map[string]any) (time.Time, bool)) *SlowPolicy {
	return &SlowPolicy{Threshold: threshold, Since: since}
}

func (p *SlowPolicy) Name() string { return "slow" }

func (p *SlowPolicy) Evaluate(atom map[string]any, now time.Time) Decision {
	if p.Since == nil {
		return Decision{Allow: true}
	}
	start, ok := p.Since(atom)
	if !ok {
		return Decision{Allow: true}
	}
	elapsed := now.Sub(start)
	if elapsed > p.Threshold {
		return Decision{
			Allow:    true,
			Warnings: []string{fmt.Sprintf("slow: processing took %s (threshold %s)", elapsed, p.Threshold)},
		}
	}
	return Decision{Allow: true}
}
