// Package canonical implements the ledger's deterministic canonicalization
// rules (spec §4.1) — a documented, intentionally narrower subset of
// RFC 8785 JCS. It is the hashing pre-image for every atomic.
//
// Strategy, grounded on the teacher's canonicalize.JCS: pre-marshal the
// input with the standard encoding/json package (so struct tags are
// honored), re-decode it with json.Number preserved, then walk the
// resulting generic tree ourselves so we control key order, string
// escaping, and number rendering exactly.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/jsonatomic/ledger/pkg/errs"
)

// Marshal returns the canonical byte string for v per spec §4.1.
func Marshal(v any) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(errs.UnsupportedType, "pre-marshal failed", err)
	}

	dec := json.NewDecoder(bytes.NewReader(intermediate))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, errs.Wrap(errs.UnsupportedType, "intermediate decode failed", err)
	}

	var buf bytes.Buffer
	if err := writeValue(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalMap is Marshal specialized for the map[string]any representation
// atomics are held in internally — avoids the intermediate json.Marshal
// round trip since the map is already built from json.Number-preserving
// decode.
func MarshalMap(m map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		return writeNumber(buf, t)
	case float64:
		return writeNumber(buf, json.Number(strconv.FormatFloat(t, 'g', -1, 64)))
	case int:
		buf.WriteString(strconv.Itoa(t))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
		return nil
	case string:
		writeString(buf, t)
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeValue(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return errs.New(errs.UnsupportedType, fmt.Sprintf("unsupported type %T", v))
	}
}

func writeNumber(buf *bytes.Buffer, n json.Number) error {
	f, err := n.Float64()
	if err == nil {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return errs.New(errs.NonFiniteNumber, "number must be finite")
		}
	}
	s := n.String()
	buf.WriteString(s)
	return nil
}

// hex digits for \u00XX escapes.
const hexDigits = "0123456789abcdef"

// writeString JSON-escapes s per spec §4.1 rule 4: quote, backslash,
// control characters 0x00..0x1F via short forms where defined else
// \u00XX; non-ASCII bytes are emitted literally (no \uXXXX escaping),
// no Unicode normalization is performed.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[(r>>4)&0xF])
				buf.WriteByte(hexDigits[r&0xF])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
