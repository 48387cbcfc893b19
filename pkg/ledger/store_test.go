package ledger

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonatomic/ledger/pkg/values"
)

func fakeHash(prefix string) string {
	return prefix + strings.Repeat("0", 64-len(prefix))
}

func newAtom(trace, actor string) map[string]any {
	return map[string]any{
		"schema_version": "1.1.0",
		"entity_type":    "decision",
		"this":           map[string]any{"summary": "test"},
		"did":            map[string]any{"actor": actor, "action": "create"},
		"metadata":       map[string]any{"trace_id": trace, "created_at": "2026-01-01T00:00:00Z"},
	}
}

func TestStore_AppendAssignsHashAndCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	cursor, err := s.Append(newAtom("t1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cursor.ToNumber())
}

func TestStore_AppendRejectsDuplicateHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	atom := newAtom("t1", "alice")
	atom["hash"] = fakeHash("deadbeef")
	_, err = s.Append(atom)
	require.NoError(t, err)

	_, err = s.Append(atom)
	assert.Error(t, err)
}

func TestStore_AppendRejectsMissingEntityType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	atom := newAtom("t1", "alice")
	delete(atom, "entity_type")
	_, err = s.Append(atom)
	assert.Error(t, err)
}

func TestStore_FindByHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	atom := newAtom("t1", "alice")
	atom["hash"] = fakeHash("aaaa")
	_, err = s.Append(atom)
	require.NoError(t, err)

	hv, err := values.NewHash(atom["hash"].(string))
	require.NoError(t, err)
	found, ok, err := s.FindByHash(hv)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", found["did"].(map[string]any)["actor"])
}

func TestStore_ScanPaginates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		atom := newAtom("t1", "alice")
		atom["this"] = map[string]any{"seq": i} // distinct content, so no duplicate hash
		_, err := s.Append(atom)
		require.NoError(t, err)
	}

	page1, err := s.Scan(ScanOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.True(t, page1.HasMore)

	page2, err := s.Scan(ScanOptions{Limit: 2, Cursor: page1.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.True(t, page2.HasMore)
}

func TestStore_QueryFiltersByTraceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	_, err = s.Append(newAtom("t1", "alice"))
	require.NoError(t, err)
	_, err = s.Append(newAtom("t2", "bob"))
	require.NoError(t, err)

	results, err := s.Query(QueryOptions{TraceID: "t2"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bob", results[0]["did"].(map[string]any)["actor"])
}

func TestStore_GetStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.ndjson")
	s, err := NewStore(path)
	require.NoError(t, err)

	_, err = s.Append(newAtom("t1", "alice"))
	require.NoError(t, err)
	_, err = s.Append(newAtom("t2", "bob"))
	require.NoError(t, err)

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByType["decision"])
}
