// Package replay implements C10: deterministic re-execution for comparing
// a recorded operation's output against a fresh run under a controlled
// clock and PRNG, grounded on the teacher's pkg/replay/replay.go
// (live_hash vs replay_hash comparison idiom from
// pkg/conform/gates/g2_replay.go) and its pervasive injectable-clock
// convention (crypto.Signer.WithClock, ledger.Store.WithClock,
// ledger.Rotator.WithClock).
package replay

import (
	"strings"
	"time"
)

// Execution is the observable output of one signed-append operation: the
// atomic's hash and, if signed, its hex-encoded signature.
type Execution struct {
	Hash         string
	SignatureHex string
}

// Divergence reports whether a replayed Execution matches its baseline.
type Divergence struct {
	HashMatches      bool
	SignatureMatches bool
	Baseline         Execution
	Replayed         Execution
}

// Matches reports whether the replay reproduced the baseline exactly.
func (d Divergence) Matches() bool {
	return d.HashMatches && d.SignatureMatches
}

// Controller installs a deterministic Clock, PRNG, and policy evaluation
// order and runs an operation under them, so repeated calls with fresh
// Clock/PRNG state produce identical outputs given identical inputs (spec
// §4.9: inputs are `seed` (string), `policy_order`, and an optional
// `fixed_timestamp`).
type Controller struct {
	Clock       *Clock
	PRNG        *PRNG
	PolicyOrder []string
}

// NewController builds a Controller whose clock starts at fixedTimestamp
// and advances by step on each Now() call, whose PRNG is derived from the
// string seed via a 64-bit mix of its bytes (spec §4.9), and which threads
// policyOrder through to the replayed operation so a reordered policy
// chain can be replayed deterministically too.
func NewController(fixedTimestamp time.Time, step time.Duration, seed string, policyOrder []string) *Controller {
	return &Controller{
		Clock:       NewClock(fixedTimestamp, step),
		PRNG:        NewPRNGFromSeed(seed),
		PolicyOrder: policyOrder,
	}
}

// OperationFunc is caller-supplied code that performs the operation being
// replayed, reading all nondeterministic inputs from clock and prng rather
// than from wall-clock time or crypto/rand, and evaluating policies in the
// order given by policyOrder rather than some other default.
type OperationFunc func(clock *Clock, prng *PRNG, policyOrder []string) (Execution, error)

// Run resets the controller's clock to tick 0 and executes fn once.
func (c *Controller) Run(fn OperationFunc) (Execution, error) {
	c.Clock.Reset()
	return fn(c.Clock, c.PRNG, c.PolicyOrder)
}

// Compare re-runs fn from a fresh clock tick and reports how its output
// diverges, if at all, from baseline (spec §4.9: replay must reproduce
// hash and signature bytes exactly).
func (c *Controller) Compare(baseline Execution, fn OperationFunc) (Divergence, error) {
	replayed, err := c.Run(fn)
	if err != nil {
		return Divergence{}, err
	}
	return Divergence{
		HashMatches:      strings.EqualFold(baseline.Hash, replayed.Hash),
		SignatureMatches: strings.EqualFold(baseline.SignatureHex, replayed.SignatureHex),
		Baseline:         baseline,
		Replayed:         replayed,
	}, nil
}
