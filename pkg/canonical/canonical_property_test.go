//go:build property
// +build property

package canonical_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jsonatomic/ledger/pkg/canonical"
)

// TestMarshal_KeyOrderInsensitive is P1: canonicalize(v) is invariant under
// the input map's key insertion order.
func TestMarshal_KeyOrderInsensitive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("two maps built from the same key/value pairs in different order canonicalize identically", prop.ForAll(
		func(keys []string, vals []string) bool {
			n := len(keys)
			if len(vals) < n {
				n = len(vals)
			}
			if n == 0 {
				return true
			}
			var pairs [][2]string
			seen := map[string]bool{}
			for i := 0; i < n; i++ {
				if keys[i] == "" || seen[keys[i]] {
					continue
				}
				seen[keys[i]] = true
				pairs = append(pairs, [2]string{keys[i], vals[i]})
			}
			forward := map[string]any{}
			backward := map[string]any{}
			for i := range pairs {
				forward[pairs[i][0]] = pairs[i][1]
				j := len(pairs) - 1 - i
				backward[pairs[j][0]] = pairs[j][1]
			}
			a, err1 := canonical.Marshal(forward)
			b, err2 := canonical.Marshal(backward)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return string(a) == string(b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestMarshal_Deterministic is P1's other half: repeated canonicalization
// of the same value produces byte-identical output.
func TestMarshal_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("canonicalize is deterministic across repeated calls", prop.ForAll(
		func(a, b string, n int) bool {
			v := map[string]any{"a": a, "b": b, "n": n}
			out1, err1 := canonical.Marshal(v)
			out2, err2 := canonical.Marshal(v)
			if err1 != nil || err2 != nil {
				return false
			}
			return string(out1) == string(out2)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
