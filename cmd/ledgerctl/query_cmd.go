package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/jsonatomic/ledger/pkg/ledger"
)

// runQueryCmd implements `ledgerctl query`: filters a ledger file by
// trace/entity/owner/tenant/date (spec §4.5).
//
// Exit codes: 0 = query ran (possibly zero matches), 2 = runtime error.
func runQueryCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("query", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var opts ledger.QueryOptions
	var file string
	cmd.StringVar(&file, "file", "", "Path to the ledger NDJSON file (REQUIRED)")
	cmd.StringVar(&opts.TraceID, "trace-id", "", "Filter by metadata.trace_id")
	cmd.StringVar(&opts.EntityType, "entity-type", "", "Filter by entity_type")
	cmd.StringVar(&opts.OwnerID, "owner-id", "", "Filter by metadata.owner_id")
	cmd.StringVar(&opts.TenantID, "tenant-id", "", "Filter by metadata.tenant_id")
	cmd.StringVar(&opts.FromDate, "from", "", "Filter by metadata.created_at >= from (RFC3339)")
	cmd.StringVar(&opts.ToDate, "to", "", "Filter by metadata.created_at <= to (RFC3339)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}

	store, err := ledger.NewStore(file)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	results, err := store.Query(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	for _, r := range results {
		line, _ := json.Marshal(r)
		fmt.Fprintln(stdout, string(line))
	}
	return 0
}
