// Package errs implements the closed error taxonomy shared by every
// component of the ledger engine (spec §6.6, §7). Every fallible operation
// returns either a value or one of these typed errors — there are no
// out-of-band panics for expected failure modes.
package errs

import "fmt"

// Code is a stable, closed enumeration of engine error kinds.
type Code string

const (
	NonFiniteNumber       Code = "NON_FINITE_NUMBER"
	UnsupportedType       Code = "UNSUPPORTED_TYPE"
	InvalidHash           Code = "INVALID_HASH"
	InvalidTraceID        Code = "INVALID_TRACE_ID"
	InvalidCursor         Code = "INVALID_CURSOR"
	DuplicateAtomic       Code = "DUPLICATE_ATOMIC"
	InvalidAtomic         Code = "INVALID_ATOMIC"
	LineTooLarge          Code = "LINE_TOO_LARGE"
	ParseError            Code = "PARSE_ERROR"
	InvalidGenesis        Code = "INVALID_GENESIS"
	MissingPrev           Code = "MISSING_PREV"
	PrevMismatch          Code = "PREV_MISMATCH"
	HashMismatch          Code = "HASH_MISMATCH"
	InvalidSignature      Code = "INVALID_SIGNATURE"
	UnsupportedAlgorithm  Code = "UNSUPPORTED_ALGORITHM"
	InvalidSignatureFmt   Code = "INVALID_SIGNATURE_FORMAT"
	SignatureError        Code = "SIGNATURE_ERROR"
	PolicyTTLExpired      Code = "POLICY_TTL_EXPIRED"
	PolicyThrottled       Code = "POLICY_THROTTLED"
	PolicyCircuitOpen     Code = "POLICY_CIRCUIT_OPEN"
	RepositoryError       Code = "REPOSITORY_ERROR"
)

// Error is the engine's single error type. Cause wraps the underlying
// lower-layer error, if any. RetryAfterMs is populated by policy denials
// that carry a machine-readable retry hint (throttle, circuit breaker).
type Error struct {
	Code         Code
	Message      string
	Cause        error
	RetryAfterMs int64
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error carrying cause as its wrapped lower-layer error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithRetryAfter attaches a retry-after hint (used by throttle/breaker denials).
func (e *Error) WithRetryAfter(ms int64) *Error {
	e.RetryAfterMs = ms
	return e
}

// Is supports errors.Is against a bare Code sentinel comparison via Code().
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, else "".
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return ""
	}
	return e.Code
}
