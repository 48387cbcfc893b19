package policy

import (
	"fmt"
	"time"

	"github.com/jsonatomic/ledger/pkg/atomic"
)

// TTLPolicy denies atomics whose metadata.created_at is older than MaxAge
// relative to the evaluation clock (spec §4.7, POLICY_TTL_EXPIRED).
type TTLPolicy struct {
	MaxAge time.Duration
}

func NewTTLPolicy(maxAge time.Duration) *TTLPolicy {
	return &TTLPolicy{MaxAge: maxAge}
}

func (p *TTLPolicy) Name() string { return "ttl" }

func (p *TTLPolicy) Evaluate(atom map[string]any, now time.Time) Decision {
	created := atomic.CreatedAt(atom)
	if created == "" {
		return Decision{
			Allow:      false,
			PolicyName: p.Name(),
			Reason:     "NO_CREATED_AT: atomic has no metadata.created_at",
		}
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Decision{Allow: true} // malformed timestamps are INVALID_ATOMIC elsewhere, not a TTL concern
	}
	age := now.Sub(t)
	if age > p.MaxAge {
		return Decision{
			Allow:      false,
			PolicyName: p.Name(),
			Reason:     fmt.Sprintf("atomic age %s exceeds ttl %s", age, p.MaxAge),
		}
	}
	return Decision{Allow: true}
}
