package ledger

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/jsonatomic/ledger/pkg/atomic"
)

// Rotator selects the target ledger file for an atomic, either by calendar
// month or by metadata.tenant_id (spec §3.3/§4.5), and caches one *Store
// per resolved path. Grounded on pkg/store/ledger/types.go's TenantID field
// and FileLedger's single-path-per-instance idiom, generalized to a
// path-selecting front end over many per-partition Stores.
type Rotator struct {
	dir       string
	byTenant  bool
	clock     func() time.Time
	mu        sync.Mutex
	stores    map[string]*Store
}

// NewMonthlyRotator partitions ledger files by calendar month:
// ledger-YYYY-MM.ndjson under dir.
func NewMonthlyRotator(dir string) *Rotator {
	return &Rotator{dir: dir, clock: time.Now, stores: map[string]*Store{}}
}

// NewTenantRotator partitions ledger files by metadata.tenant_id:
// ledger-<tenant_id>.ndjson under dir.
func NewTenantRotator(dir string) *Rotator {
	return &Rotator{dir: dir, byTenant: true, clock: time.Now, stores: map[string]*Store{}}
}

// WithClock overrides the clock used for monthly partitioning (for tests).
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	r.clock = now
	return r
}

// StoreFor resolves and opens (if needed) the Store that atom belongs in.
func (r *Rotator) StoreFor(atom map[string]any) (*Store, error) {
	key := r.partitionKey(atom)
	path := filepath.Join(r.dir, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[path]; ok {
		return s, nil
	}
	s, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	r.stores[path] = s
	return s, nil
}

// Append routes atom to its partition's Store and appends it there.
func (r *Rotator) Append(atom map[string]any) (*Store, error) {
	s, err := r.StoreFor(atom)
	if err != nil {
		return nil, err
	}
	if _, err := s.Append(atom); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Rotator) partitionKey(atom map[string]any) string {
	if r.byTenant {
		tenant := atomic.StringField(atomic.MapField(atom, "metadata"), "tenant_id")
		if tenant == "" {
			tenant = "default"
		}
		return fmt.Sprintf("ledger-%s.ndjson", tenant)
	}
	now := r.clock()
	return fmt.Sprintf("ledger-%04d-%02d.ndjson", now.Year(), now.Month())
}
