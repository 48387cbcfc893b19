// Package policy implements C7: a short-circuit-deny chain of composable
// admission policies evaluated before an atomic is appended (spec §4.7).
// Grounded on the teacher's pkg/governance/policy_engine.go (ordered policy
// list, first-deny-wins evaluation) and pkg/auth/ratelimit.go plus
// pkg/util/resiliency/client.go (fixed-window throttle, circuit breaker
// state machine), generalized from HTTP request gating to ledger-atomic
// admission.
package policy

import (
	"time"

	"github.com/jsonatomic/ledger/pkg/errs"
)

// Decision is the verdict of one policy evaluation.
type Decision struct {
	Allow        bool
	PolicyName   string
	Reason       string
	RetryAfterMs int64
	// Warnings carries advisory annotations from policies that never deny
	// (e.g. Slow) so callers can surface them without failing the append.
	Warnings []string
	// AppliedPolicies lists every policy the Engine ran before reaching this
	// verdict, in evaluation order (spec §4.7: "the simulator returns the
	// decision, applied policies in evaluation order, and timing metrics").
	// On a denial it ends with the denying policy's name.
	AppliedPolicies []string
}

// Policy evaluates a single admission check against an atomic about to be
// appended. A Policy never mutates atom.
type Policy interface {
	Name() string
	Evaluate(atom map[string]any, now time.Time) Decision
}

// Engine runs an ordered chain of Policies and stops at the first denial
// (spec §4.7: "policies are evaluated in order; the first denial wins").
type Engine struct {
	policies []Policy
}

// NewEngine builds an Engine evaluating policies in the given order. The
// default deployment order is TTL, Slow, Throttle, Breaker (spec §4.7); the
// caller is free to reorder or omit stages.
func NewEngine(policies ...Policy) *Engine {
	return &Engine{policies: policies}
}

// Evaluate runs every configured policy in order against atom, returning
// the first denial encountered, or an aggregate allow decision carrying any
// advisory warnings collected along the way.
func (e *Engine) Evaluate(atom map[string]any, now time.Time) Decision {
	var warnings []string
	var applied []string
	for _, p := range e.policies {
		d := p.Evaluate(atom, now)
		warnings = append(warnings, d.Warnings...)
		applied = append(applied, p.Name())
		if !d.Allow {
			d.Warnings = warnings
			d.AppliedPolicies = applied
			return d
		}
	}
	return Decision{Allow: true, Warnings: warnings, AppliedPolicies: applied}
}

// AsError converts a denying Decision into the corresponding *errs.Error
// for policies that map onto a closed §6.6 code (TTL, Throttle, Breaker).
// Slow and CEL policies are advisory/custom and return a generic denial.
func AsError(d Decision) error {
	if d.Allow {
		return nil
	}
	var code errs.Code
	switch d.PolicyName {
	case "ttl":
		code = errs.PolicyTTLExpired
	case "throttle":
		code = errs.PolicyThrottled
	case "breaker":
		code = errs.PolicyCircuitOpen
	default:
		code = errs.InvalidAtomic
	}
	e := errs.New(code, d.Reason)
	if d.RetryAfterMs > 0 {
		e = e.WithRetryAfter(d.RetryAfterMs)
	}
	return e
}
