package atomic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLine() []byte {
	return []byte(`{
		"schema_version": "1.1.0",
		"entity_type": "file",
		"this": {"path": "a.go"},
		"did": {"actor": "alice", "action": "create"},
		"metadata": {"trace_id": "11111111-1111-1111-1111-111111111111", "created_at": "2026-01-01T00:00:00Z"}
	}`)
}

func TestDecode_PreservesNumberLiterals(t *testing.T) {
	a, err := Decode([]byte(`{"entity_type":"file","this":{},"did":{"actor":"a","action":"b"},"metadata":{"trace_id":"t","created_at":"c"},"n":1.50}`))
	require.NoError(t, err)
	n, ok := a["n"].(json.Number)
	require.True(t, ok)
	assert.Equal(t, json.Number("1.50"), n)
}

func TestValidate_AcceptsWellFormedAtomic(t *testing.T) {
	a, err := Decode(validLine())
	require.NoError(t, err)
	assert.NoError(t, Validate(a))
}

func TestValidate_RejectsUnknownEntityType(t *testing.T) {
	a, err := Decode(validLine())
	require.NoError(t, err)
	a["entity_type"] = "spaceship"
	assert.Error(t, Validate(a))
}

func TestValidate_RejectsMissingDID(t *testing.T) {
	a, err := Decode(validLine())
	require.NoError(t, err)
	delete(a, "did")
	assert.Error(t, Validate(a))
}

func TestWithDefaults_FillsSchemaVersion(t *testing.T) {
	out := WithDefaults(map[string]any{"entity_type": "file"})
	assert.Equal(t, SchemaVersion, out["schema_version"])
}

func TestWithDefaults_DoesNotOverrideExisting(t *testing.T) {
	out := WithDefaults(map[string]any{"schema_version": "1.0.0"})
	assert.Equal(t, "1.0.0", out["schema_version"])
}

func TestIsCompatible_SameMajorMinor(t *testing.T) {
	ok, err := IsCompatible("1.1.5")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsCompatible_DifferentMinorIsIncompatible(t *testing.T) {
	ok, err := IsCompatible("1.2.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsCompatible_EmptyVersionIsLenient(t *testing.T) {
	ok, err := IsCompatible("")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccessors(t *testing.T) {
	a, err := Decode(validLine())
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", TraceID(a))
	assert.Equal(t, "2026-01-01T00:00:00Z", CreatedAt(a))
	_, hasPrev := Prev(a)
	assert.False(t, hasPrev)
}
