package policy

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

// CELPolicy is the optional fifth admission stage (C14): a deployment-
// supplied boolean expression evaluated against the atomic, for rules the
// closed §6.6 code set doesn't name. Grounded on the teacher's
// pkg/governance/policy_evaluator_cel.go (env with an "atom"/"timestamp"
// input, cached compiled programs, cost-limited evaluation), generalized
// from module-manifest policy strings to ledger-atomic admission.
type CELPolicy struct {
	env  *cel.Env
	expr string

	mu  sync.Mutex
	prg cel.Program
}

// NewCELPolicy compiles expr once against an environment exposing the
// atomic as `atom` (a dynamic map) and the evaluation time as `now_unix`.
// expr must evaluate to a bool; true admits, false denies.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("atom", cel.DynType),
		cel.Variable("now_unix", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy: CEL compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("policy: CEL program error: %w", err)
	}
	return &CELPolicy{env: env, expr: expr, prg: prg}, nil
}

func (p *CELPolicy) Name() string { return "cel" }

func (p *CELPolicy) Evaluate(atom map[string]any, now time.Time) Decision {
	p.mu.Lock()
	prg := p.prg
	p.mu.Unlock()

	out, _, err := prg.Eval(map[string]any{"atom": atom, "now_unix": now.Unix()})
	if err != nil {
		return Decision{Allow: false, PolicyName: p.Name(), Reason: fmt.Sprintf("CEL eval error: %v", err)}
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return Decision{Allow: false, PolicyName: p.Name(), Reason: "CEL expression did not evaluate to bool"}
	}
	if !allowed {
		return Decision{Allow: false, PolicyName: p.Name(), Reason: fmt.Sprintf("CEL rule denied: %s", p.expr)}
	}
	return Decision{Allow: true}
}
