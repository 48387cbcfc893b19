//go:build property
// +build property

package chainverify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jsonatomic/ledger/pkg/chainverify"
	"github.com/jsonatomic/ledger/pkg/crypto"
)

func atomAt(trace, actor string, seq int) map[string]any {
	return map[string]any{
		"schema_version": "1.1.0",
		"entity_type":    "decision",
		"this":           map[string]any{"seq": seq},
		"did":            map[string]any{"actor": actor, "action": "create"},
		"metadata":       map[string]any{"trace_id": trace, "created_at": "2026-01-01T00:00:00Z"},
	}
}

// TestVerifyReader_ChainContinuity is P6: in a file verified with
// check_prev_chain on, every non-genesis line's prev equals the preceding
// line's hash, and the verifier reports zero PREV_MISMATCH/HASH_MISMATCH
// invalid lines for a chain built that way.
func TestVerifyReader_ChainContinuity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("a correctly chained, correctly signed ledger verifies with zero invalid lines", prop.ForAll(
		func(actor string, length int) bool {
			n := length % 8
			if n < 1 {
				n = 1
			}
			priv, _, err := crypto.GenerateKeys()
			if err != nil {
				return false
			}
			signer := crypto.NewSigner(priv)

			var buf bytes.Buffer
			prevHash := ""
			for i := 0; i < n; i++ {
				atom := atomAt("t1", actor, i)
				if i > 0 {
					atom["prev"] = prevHash
				}
				hash, env, err := signer.Sign(atom)
				if err != nil {
					return false
				}
				atom["hash"] = hash
				atom["signature"] = map[string]any{
					"alg": env.Alg, "public_key": env.PublicKey, "sig": env.Sig, "signed_at": env.SignedAt,
				}
				line, err := json.Marshal(atom)
				if err != nil {
					return false
				}
				buf.Write(line)
				buf.WriteByte('\n')
				prevHash = hash
			}

			summary, err := chainverify.VerifyReader(context.Background(), &buf, chainverify.Options{CheckPrevChain: true})
			if err != nil {
				return false
			}
			return summary.Invalid == 0 && summary.Total == n
		},
		gen.AlphaString(), gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
