package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/jsonatomic/ledger/pkg/ledger"
)

// runStatsCmd implements `ledgerctl stats`: summarizes a ledger file
// (spec §4.5).
//
// Exit codes: 0 = summarized, 2 = runtime error.
func runStatsCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("stats", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var file string
	cmd.StringVar(&file, "file", "", "Path to the ledger NDJSON file (REQUIRED)")
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
	stats, err := store.GetStats()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Fprintln(stdout, string(out))
	return 0
}
