// Package ledger implements C5 (append-only ledger store) and C9 (rotation
// adapter). Grounded on the teacher's pkg/store/ledger/file_ledger.go
// (injectable clock, mutex-guarded durable writes) and pkg/ledger/ledger.go
// (hash-chained Append returning a sequence number), generalized from a
// whole-file JSON blob to an append-only NDJSON file with a per-file mutex,
// a lazily-populated in-memory hash index, and line-oriented scan/query.
package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jsonatomic/ledger/pkg/atomic"
	"github.com/jsonatomic/ledger/pkg/crypto"
	"github.com/jsonatomic/ledger/pkg/errs"
	"github.com/jsonatomic/ledger/pkg/values"
)

// maxLineBytes mirrors the chain verifier's 10 MiB line cap (spec §4.6) so
// a store never buffers more of a malformed line than verify would.
const maxLineBytes = 10 * 1024 * 1024

// fileLocks guarantees a single mutex per absolute ledger path even if
// multiple *Store values are constructed against the same file (e.g. via
// the rotation adapter), per spec §5's "append is a critical section".
var fileLocks sync.Map // map[string]*sync.Mutex

func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	mu, _ := fileLocks.LoadOrStore(abs, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Store is a durable, append-only NDJSON ledger file.
type Store struct {
	path  string
	mu    *sync.Mutex
	clock func() time.Time

	indexMu     sync.Mutex
	indexLoaded bool
	seenHashes  map[string]bool
	lineCount   uint64
}

// NewStore opens (without yet reading) the ledger file at path, creating
// its parent directory if necessary.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.Wrap(errs.RepositoryError, "failed to create ledger directory", err)
	}
	return &Store{
		path:  path,
		mu:    lockFor(path),
		clock: time.Now,
	}, nil
}

// WithClock overrides the store's clock (kept for parity with the teacher's
// injectable-clock idiom; no Store method reads it).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.clock = now
	return s
}

// Path returns the underlying file path.
func (s *Store) Path() string { return s.path }

// Append validates required fields, computes the hash if absent, rejects
// duplicates, and appends the serialized atomic as one line (spec §4.5).
func (s *Store) Append(atom map[string]any) (values.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := requireNonEmpty(atomic.StringField(atom, "entity_type"), "entity_type"); err != nil {
		return values.Cursor{}, err
	}
	if _, ok := atom["this"]; !ok {
		return values.Cursor{}, errs.New(errs.InvalidAtomic, "missing required field: this")
	}
	if err := requireNonEmpty(atomic.TraceID(atom), "metadata.trace_id"); err != nil {
		return values.Cursor{}, err
	}

	working := atom
	if _, ok := working["hash"]; !ok {
		h, err := crypto.Hash(working)
		if err != nil {
			return values.Cursor{}, err
		}
		working = cloneWith(working, "hash", h)
	}
	hashStr, _ := working["hash"].(string)

	if err := s.ensureIndexLoaded(); err != nil {
		return values.Cursor{}, err
	}

	s.indexMu.Lock()
	dup := s.seenHashes[strings.ToLower(hashStr)]
	s.indexMu.Unlock()
	if dup {
		return values.Cursor{}, errs.New(errs.DuplicateAtomic, "an atomic with this hash already exists in this file")
	}

	line, err := serializeLine(working)
	if err != nil {
		return values.Cursor{}, err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return values.Cursor{}, errs.Wrap(errs.RepositoryError, "failed to open ledger file", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return values.Cursor{}, errs.Wrap(errs.RepositoryError, "failed to append to ledger file", err)
	}

	s.indexMu.Lock()
	s.seenHashes[strings.ToLower(hashStr)] = true
	s.lineCount++
	cursor := values.CursorFromUint(s.lineCount)
	s.indexMu.Unlock()

	return cursor, nil
}

// FindByHash performs a linear scan of the file for an atomic with the
// given hash (spec §4.5: "MAY keep an optional in-memory index of seen
// hashes" — used here only to short-circuit a miss, never to avoid the
// scan for a hit, since the index doesn't store full atomics).
func (s *Store) FindByHash(h values.Hash) (map[string]any, bool, error) {
	if err := s.ensureIndexLoaded(); err != nil {
		return nil, false, err
	}
	s.indexMu.Lock()
	known := s.seenHashes[strings.ToLower(h.String())]
	s.indexMu.Unlock()
	if !known {
		return nil, false, nil
	}

	var found map[string]any
	err := s.forEachLine(func(line []byte) error {
		a, perr := atomic.Decode(line)
		if perr != nil {
			return nil // malformed lines are skipped, not fatal (spec §4.5)
		}
		if hv, _ := a["hash"].(string); hv != "" && h.EqualsString(hv) {
			found = a
		}
		return nil
	})
	return found, found != nil, err
}

// Scan returns a page of atomics starting at the 0-based line offset
// opts.Cursor, matching opts.Status/opts.EntityType if set (spec §4.5).
func (s *Store) Scan(opts ScanOptions) (ScanResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	var result ScanResult
	var idx uint64
	done := false
	err := s.forEachLine(func(line []byte) error {
		curIdx := idx
		idx++
		if curIdx < opts.Cursor || done {
			return nil
		}
		a, perr := atomic.Decode(line)
		if perr != nil {
			return nil
		}
		if opts.EntityType != "" && atomic.StringField(a, "entity_type") != opts.EntityType {
			return nil
		}
		if opts.Status != "" && atomic.StringField(atomic.MapField(a, "status"), "state") != opts.Status {
			return nil
		}
		if len(result.Items) >= limit {
			result.HasMore = true
			result.NextCursor = curIdx
			done = true
			return nil
		}
		result.Items = append(result.Items, a)
		result.NextCursor = curIdx + 1
		return nil
	})
	if err != nil {
		return ScanResult{}, err
	}
	return result, nil
}

// Query performs a match-all linear scan over the supplied filters
// (spec §4.5).
func (s *Store) Query(opts QueryOptions) ([]map[string]any, error) {
	var out []map[string]any
	err := s.forEachLine(func(line []byte) error {
		a, perr := atomic.Decode(line)
		if perr != nil {
			return nil
		}
		meta := atomic.MapField(a, "metadata")
		if opts.TraceID != "" && atomic.StringField(meta, "trace_id") != opts.TraceID {
			return nil
		}
		if opts.EntityType != "" && atomic.StringField(a, "entity_type") != opts.EntityType {
			return nil
		}
		if opts.OwnerID != "" && atomic.StringField(meta, "owner_id") != opts.OwnerID {
			return nil
		}
		if opts.TenantID != "" && atomic.StringField(meta, "tenant_id") != opts.TenantID {
			return nil
		}
		created := atomic.StringField(meta, "created_at")
		if opts.FromDate != "" && created < opts.FromDate {
			return nil
		}
		if opts.ToDate != "" && created > opts.ToDate {
			return nil
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// GetStats summarizes the ledger file (spec §4.5).
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{ByType: map[string]int{}, ByStatus: map[string]int{}}
	err := s.forEachLine(func(line []byte) error {
		a, perr := atomic.Decode(line)
		if perr != nil {
			return nil
		}
		stats.Total++
		if et := atomic.StringField(a, "entity_type"); et != "" {
			stats.ByType[et]++
		}
		if st := atomic.StringField(atomic.MapField(a, "status"), "state"); st != "" {
			stats.ByStatus[st]++
		}
		created := atomic.CreatedAt(a)
		if created != "" {
			if stats.OldestTimestamp == "" || created < stats.OldestTimestamp {
				stats.OldestTimestamp = created
			}
			if stats.NewestTimestamp == "" || created > stats.NewestTimestamp {
				stats.NewestTimestamp = created
			}
		}
		return nil
	})
	return stats, err
}

// ensureIndexLoaded populates the hash-seen index by scanning the file
// once, lazily on first use.
func (s *Store) ensureIndexLoaded() error {
	s.indexMu.Lock()
	if s.indexLoaded {
		s.indexMu.Unlock()
		return nil
	}
	s.indexMu.Unlock()

	seen := map[string]bool{}
	var count uint64
	err := s.forEachLine(func(line []byte) error {
		count++
		a, perr := atomic.Decode(line)
		if perr != nil {
			return nil
		}
		if h, _ := a["hash"].(string); h != "" {
			seen[strings.ToLower(h)] = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.indexMu.Lock()
	if !s.indexLoaded {
		s.seenHashes = seen
		s.lineCount = count
		s.indexLoaded = true
	}
	s.indexMu.Unlock()
	return nil
}

// forEachLine streams the file one line at a time, skipping empty/whitespace
// lines, without loading the whole file into memory (spec §4.5/§5).
func (s *Store) forEachLine(fn func(line []byte) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.RepositoryError, "failed to open ledger file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		if err := fn(cp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errs.Wrap(errs.RepositoryError, "failed to read ledger file", err)
	}
	return nil
}

func requireNonEmpty(v, field string) error {
	if v == "" {
		return errs.New(errs.InvalidAtomic, "missing required field: "+field)
	}
	return nil
}

func cloneWith(m map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

func serializeLine(atom map[string]any) ([]byte, error) {
	b, err := json.Marshal(atom)
	if err != nil {
		return nil, errs.Wrap(errs.RepositoryError, "failed to serialize atomic", err)
	}
	b = append(b, '\n')
	return b, nil
}
