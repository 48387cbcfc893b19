package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jsonatomic/ledger/pkg/errs"
)

// AlgEd25519 is the only supported signature algorithm (spec §3.2).
const AlgEd25519 = "Ed25519"

// Envelope is the structured signature (spec §3.2):
// {alg, public_key, sig, signed_at}.
type Envelope struct {
	Alg       string `json:"alg"`
	PublicKey string `json:"public_key"`
	Sig       string `json:"sig"`
	SignedAt  string `json:"signed_at"`
}

// GenerateKeys creates a fresh Ed25519 keypair using the system CSPRNG.
func GenerateKeys() (priv ed25519.PrivateKey, pub ed25519.PublicKey, err error) {
	pub, priv, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, errs.Wrap(errs.SignatureError, "key generation failed", err)
	}
	return priv, pub, nil
}

// Signer signs hex hash strings with a fixed Ed25519 private key.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	now  func() time.Time
}

// NewSigner wraps an existing Ed25519 private key.
func NewSigner(priv ed25519.PrivateKey) *Signer {
	return &Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey), now: time.Now}
}

// WithClock overrides the clock used for signed_at (for deterministic replay).
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// PublicKeyHex returns the 64-hex-char public key.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.pub)
}

// Sign computes hash(atomic), signs its UTF-8 bytes, and returns the
// 64-hex-char hash plus the signature envelope (spec §4.3 sign contract).
func (s *Signer) Sign(atomic map[string]any) (hash string, env Envelope, err error) {
	hash, err = Hash(atomic)
	if err != nil {
		return "", Envelope{}, err
	}
	sig := ed25519.Sign(s.priv, []byte(hash))
	env = Envelope{
		Alg:       AlgEd25519,
		PublicKey: s.PublicKeyHex(),
		Sig:       hex.EncodeToString(sig),
		SignedAt:  s.now().UTC().Format(time.RFC3339),
	}
	return hash, env, nil
}

// Verify checks an envelope signature against hash, using optionalPublicKeyHex
// if non-empty, else env.PublicKey (spec §4.3 verify contract).
func Verify(hash string, env Envelope, optionalPublicKeyHex string) (bool, error) {
	if env.Alg != AlgEd25519 {
		return false, errs.New(errs.UnsupportedAlgorithm, "alg must be Ed25519, got "+env.Alg)
	}

	pubHex := env.PublicKey
	if optionalPublicKeyHex != "" {
		pubHex = optionalPublicKeyHex
	}
	if pubHex == "" || env.Sig == "" {
		return false, errs.New(errs.InvalidSignatureFmt, "missing public_key or sig")
	}

	pubBytes, err := hex.DecodeString(pubHex)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		return false, errs.Wrap(errs.InvalidSignatureFmt, "malformed public key hex", err)
	}
	sigBytes, err := hex.DecodeString(env.Sig)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return false, errs.Wrap(errs.InvalidSignatureFmt, "malformed signature hex", err)
	}

	ok := ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(hash), sigBytes)
	return ok, nil
}

// VerifyLegacyHex supports the read-only legacy path (spec §4.3): signature
// is a bare hex string rather than an envelope, verified as Ed25519 with an
// externally supplied public key.
func VerifyLegacyHex(hash, bareHexSig, publicKeyHex string) (bool, error) {
	if publicKeyHex == "" {
		return false, errs.New(errs.InvalidSignatureFmt, "legacy signature requires an externally supplied public key")
	}
	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		return false, errs.Wrap(errs.InvalidSignatureFmt, "malformed public key hex", err)
	}
	sigBytes, err := hex.DecodeString(bareHexSig)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return false, errs.Wrap(errs.InvalidSignatureFmt, "malformed signature hex", err)
	}
	return ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(hash), sigBytes), nil
}
