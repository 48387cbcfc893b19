package crypto

import (
	"github.com/jsonatomic/ledger/pkg/errs"
)

// VerifyAtomic implements the full §4.3 verify contract: both atomic.hash
// and atomic.signature must be present, the signature (envelope or legacy
// bare-hex) must check out against the declared or supplied public key, and
// the recomputed hash(atomic) must equal the stored hash — tampering with
// any non-excluded field invalidates this path even if the signature bytes
// still verify against the stale hash.
func VerifyAtomic(atomic map[string]any, optionalPublicKeyHex string) (bool, error) {
	rawHash, hasHash := atomic["hash"]
	if !hasHash {
		return false, errs.New(errs.InvalidSignature, "atomic has no hash")
	}
	declaredHash, _ := rawHash.(string)
	if declaredHash == "" {
		return false, errs.New(errs.InvalidSignature, "atomic hash field is not a string")
	}

	sigField, hasSig := atomic["signature"]
	if !hasSig {
		return false, errs.New(errs.InvalidSignature, "atomic has no signature")
	}

	recomputed, err := Hash(atomic)
	if err != nil {
		return false, err
	}
	if !hashEqualFold(recomputed, declaredHash) {
		return false, errs.New(errs.HashMismatch, "recomputed hash does not match stored hash")
	}

	switch sig := sigField.(type) {
	case string:
		return VerifyLegacyHex(declaredHash, sig, optionalPublicKeyHex)
	case map[string]any:
		env := Envelope{
			Alg:       stringField(sig, "alg"),
			PublicKey: stringField(sig, "public_key"),
			Sig:       stringField(sig, "sig"),
			SignedAt:  stringField(sig, "signed_at"),
		}
		return Verify(declaredHash, env, optionalPublicKeyHex)
	default:
		return false, errs.New(errs.InvalidSignatureFmt, "signature is neither an envelope object nor a hex string")
	}
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func hashEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
