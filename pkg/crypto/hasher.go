// Package crypto implements C2 (content hashing) and C3 (signing) of the
// ledger engine. Grounded on the teacher's pkg/crypto (CanonicalHasher,
// Ed25519Signer), adapted from SHA-256 to domain-separated BLAKE3 per
// spec §4.2/§6.2.
package crypto

import (
	"encoding/hex"

	"lukechampine.com/blake3"

	"github.com/jsonatomic/ledger/pkg/canonical"
)

// DomainContext is the fixed BLAKE3 key-derivation context string used for
// every atomic hash: the exact 13-byte sequence "JsonAtomic/v1".
// Changing this bumps the ledger's wire version.
const DomainContext = "JsonAtomic/v1"

// excludedFields are stripped from an atomic before it is hashed (spec §3.1
// Invariant-H1).
var excludedFields = []string{"hash", "curr_hash", "signature"}

// Strip returns a shallow copy of atomic with hash/curr_hash/signature removed.
func Strip(atomic map[string]any) map[string]any {
	out := make(map[string]any, len(atomic))
	for k, v := range atomic {
		out[k] = v
	}
	for _, f := range excludedFields {
		delete(out, f)
	}
	return out
}

// Hash computes BLAKE3_derive_key(DomainContext, canonicalize(Strip(atomic)))
// and renders it as 64 lowercase hex characters.
func Hash(atomic map[string]any) (string, error) {
	canon, err := canonical.MarshalMap(Strip(atomic))
	if err != nil {
		return "", err
	}
	return HashBytes(canon), nil
}

// HashBytes applies the domain-separated BLAKE3 derive-key hash directly to
// already-canonical bytes.
func HashBytes(canonicalBytes []byte) string {
	h := blake3.NewDeriveKey(DomainContext)
	h.Write(canonicalBytes)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
