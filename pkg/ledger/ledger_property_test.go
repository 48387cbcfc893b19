//go:build property
// +build property

package ledger_test

import (
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jsonatomic/ledger/pkg/ledger"
)

// TestAppend_IdempotenceDenial is P5: appending the same atomic twice to
// the same file yields exactly one success and one DUPLICATE_ATOMIC.
func TestAppend_IdempotenceDenial(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("re-appending an identical atomic always fails the second time", prop.ForAll(
		func(actor, trace string) bool {
			if actor == "" || trace == "" {
				return true
			}
			dir := t.TempDir()
			s, err := ledger.NewStore(filepath.Join(dir, "ledger.ndjson"))
			if err != nil {
				return false
			}
			atom := map[string]any{
				"schema_version": "1.1.0",
				"entity_type":    "decision",
				"this":           map[string]any{"summary": "x"},
				"did":            map[string]any{"actor": actor, "action": "create"},
				"metadata":       map[string]any{"trace_id": trace, "created_at": "2026-01-01T00:00:00Z"},
			}
			_, err1 := s.Append(atom)
			_, err2 := s.Append(atom)
			return err1 == nil && err2 != nil
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.TestingRun(t)
}
