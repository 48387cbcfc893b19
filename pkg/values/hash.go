// Package values implements C4: the ledger's self-validating value objects
// (Hash, TraceId, Cursor). Grounded on the teacher's recurring
// validate-then-wrap constructor idiom (hex handling in pkg/crypto/signer.go,
// UUID handling in pkg/rir/extractor.go).
package values

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jsonatomic/ledger/pkg/errs"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Hash is an immutable 64-char hex string, compared case-insensitively
// (spec §3.4).
type Hash struct {
	raw string
}

// NewHash validates s and returns a Hash, or INVALID_HASH.
func NewHash(s string) (Hash, error) {
	if !hexPattern.MatchString(s) {
		return Hash{}, errs.New(errs.InvalidHash, "hash must be 64 hex characters")
	}
	return Hash{raw: s}, nil
}

// NewHashUnchecked wraps s without validation, for trusted callers
// (e.g. values just produced by the hasher).
func NewHashUnchecked(s string) Hash {
	return Hash{raw: s}
}

func (h Hash) String() string { return h.raw }

// Equals compares two hashes case-insensitively.
func (h Hash) Equals(other Hash) bool {
	return strings.EqualFold(h.raw, other.raw)
}

// EqualsString compares against a raw hex string case-insensitively.
func (h Hash) EqualsString(s string) bool {
	return strings.EqualFold(h.raw, s)
}

// IsZero reports whether this Hash was never set.
func (h Hash) IsZero() bool { return h.raw == "" }

var traceIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TraceId is an RFC 4122 UUID string grouping related atomics (spec §3.4).
type TraceId struct {
	raw string
}

// NewTraceID validates s against the UUID pattern, or INVALID_TRACE_ID.
func NewTraceID(s string) (TraceId, error) {
	if !traceIDPattern.MatchString(s) {
		return TraceId{}, errs.New(errs.InvalidTraceID, "trace_id must be an RFC 4122 UUID string")
	}
	return TraceId{raw: s}, nil
}

// NewTraceIDUnchecked wraps s without validation.
func NewTraceIDUnchecked(s string) TraceId {
	return TraceId{raw: s}
}

// GenerateTraceID creates a new v4 UUID-backed TraceId.
func GenerateTraceID() TraceId {
	return TraceId{raw: uuid.NewString()}
}

func (t TraceId) String() string { return t.raw }

// Equals compares TraceIds byte-exact (spec §3.4: "TraceId equality is
// byte-exact", unlike Hash's case-insensitive comparison).
func (t TraceId) Equals(other TraceId) bool {
	return t.raw == other.raw
}

// Cursor is a non-negative integer offset into a ledger file, represented
// externally as a decimal string (spec §3.4).
type Cursor struct {
	n uint64
}

// NewCursor validates s as a non-negative decimal integer, or INVALID_CURSOR.
func NewCursor(s string) (Cursor, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Cursor{}, errs.Wrap(errs.InvalidCursor, "cursor must be a non-negative decimal integer", err)
	}
	return Cursor{n: n}, nil
}

// CursorFromUint wraps n without validation, for trusted callers (e.g. a
// freshly computed line count).
func CursorFromUint(n uint64) Cursor {
	return Cursor{n: n}
}

func (c Cursor) String() string { return strconv.FormatUint(c.n, 10) }

// ToNumber returns the cursor's numeric value.
func (c Cursor) ToNumber() uint64 { return c.n }

func (c Cursor) Equals(other Cursor) bool { return c.n == other.n }
