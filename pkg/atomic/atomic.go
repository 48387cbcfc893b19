// Package atomic implements the Atomic data model (spec §3.1) as a plain
// map[string]any with json.Number-preserving decode (design note §9: a
// tagged variant tree for canonicalization, typed accessors layered on
// top), plus schema-version validation (C13, C17).
package atomic

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jsonatomic/ledger/pkg/errs"
)

// SchemaVersion is the fixed literal required in v1.1 atomics (spec §3.1).
const SchemaVersion = "1.1.0"

// EntityTypes enumerates the recognized entity_type values (spec §3.1).
var EntityTypes = map[string]bool{
	"file": true, "function": true, "law": true, "decision": true,
	"agent": true, "contract": true, "test": true,
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schema_version", "entity_type", "this", "did", "metadata"],
  "properties": {
    "schema_version": {"type": "string"},
    "entity_type": {"enum": ["file", "function", "law", "decision", "agent", "contract", "test"]},
    "did": {
      "type": "object",
      "required": ["actor", "action"],
      "properties": {
        "actor": {"type": "string", "minLength": 1},
        "action": {"type": "string", "minLength": 1},
        "reason": {"type": "string"}
      }
    },
    "metadata": {
      "type": "object",
      "required": ["trace_id", "created_at"],
      "properties": {
        "trace_id": {"type": "string"},
        "created_at": {"type": "string"},
        "owner_id": {"type": "string"},
        "tenant_id": {"type": "string"},
        "parent_id": {"type": "string"},
        "version": {"type": "string"}
      }
    },
    "hash": {"type": "string"}
  }
}`

var compiledSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("atomic.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
		panic(fmt.Sprintf("atomic: invalid embedded schema: %v", err))
	}
	s, err := compiler.Compile("atomic.json")
	if err != nil {
		panic(fmt.Sprintf("atomic: schema compile failed: %v", err))
	}
	compiledSchema = s
}

// Decode parses a single ledger line into the generic map representation,
// preserving original number literals via json.Number.
func Decode(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, errs.Wrap(errs.ParseError, "failed to parse atomic JSON", err)
	}
	return m, nil
}

// WithDefaults fills schema_version if absent, returning a new map (the
// input is not mutated).
func WithDefaults(atomic map[string]any) map[string]any {
	out := make(map[string]any, len(atomic)+1)
	for k, v := range atomic {
		out[k] = v
	}
	if _, ok := out["schema_version"]; !ok {
		out["schema_version"] = SchemaVersion
	}
	return out
}

// Validate runs structural JSON-Schema validation (required fields, known
// entity_type values, did/metadata shape), failing with INVALID_ATOMIC.
// ledger.Store.Append does not call it; Append checks only entity_type,
// this and metadata.trace_id.
func Validate(atomic map[string]any) error {
	if err := compiledSchema.Validate(atomic); err != nil {
		return errs.Wrap(errs.InvalidAtomic, "atomic failed schema validation", err)
	}
	if _, ok := atomic["this"]; !ok {
		return errs.New(errs.InvalidAtomic, "missing required field: this")
	}
	return nil
}

// IsCompatible reports whether an atomic's declared schema_version is
// semver-compatible with (same major.minor as) the version this engine
// implements (C17). Atomics missing schema_version are treated as
// compatible pre-1.1 records for lenient reads.
func IsCompatible(declaredVersion string) (bool, error) {
	if declaredVersion == "" {
		return true, nil
	}
	want, err := semver.NewVersion(SchemaVersion)
	if err != nil {
		return false, err
	}
	got, err := semver.NewVersion(declaredVersion)
	if err != nil {
		return false, errs.Wrap(errs.InvalidAtomic, "schema_version is not a valid semver string", err)
	}
	return got.Major() == want.Major() && got.Minor() == want.Minor(), nil
}

// StringField reads a string-typed field, returning "" if absent or not a string.
func StringField(atomic map[string]any, key string) string {
	v, ok := atomic[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MapField reads a map-typed field, returning nil if absent or not a map.
func MapField(atomic map[string]any, key string) map[string]any {
	v, ok := atomic[key]
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// TraceID reads metadata.trace_id.
func TraceID(atomic map[string]any) string {
	return StringField(MapField(atomic, "metadata"), "trace_id")
}

// CreatedAt reads metadata.created_at.
func CreatedAt(atomic map[string]any) string {
	return StringField(MapField(atomic, "metadata"), "created_at")
}

// Prev reads the prev field, if present.
func Prev(atomic map[string]any) (string, bool) {
	v, ok := atomic["prev"]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
