package ledger

// ScanOptions selects a page of a ledger file (spec §4.5 scan).
type ScanOptions struct {
	Limit      int
	Cursor     uint64 // 0-based line offset to start from
	Status     string // optional filter, matched against atomic["status"]["state"]
	EntityType string // optional filter
}

// ScanResult is the page returned by Scan.
type ScanResult struct {
	Items      []map[string]any
	NextCursor uint64
	HasMore    bool
}

// QueryOptions is the match-all (AND) filter set for Query (spec §4.5).
type QueryOptions struct {
	TraceID    string
	EntityType string
	OwnerID    string
	TenantID   string
	FromDate   string // RFC3339, compared against metadata.created_at
	ToDate     string
}

// Stats is the summary returned by GetStats (spec §4.5).
type Stats struct {
	Total            int
	ByType           map[string]int
	ByStatus         map[string]int
	OldestTimestamp  string
	NewestTimestamp  string
}
