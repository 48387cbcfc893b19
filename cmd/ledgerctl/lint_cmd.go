package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/jsonatomic/ledger/pkg/atomic"
	"github.com/jsonatomic/ledger/pkg/canonical"
)

// runLintCmd implements `ledgerctl lint`: reports whether this engine's
// documented canonicalization subset diverges from strict RFC 8785 (C16).
//
// Exit codes: 0 = no divergence, 1 = diverges, 2 = runtime/input error.
func runLintCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("lint", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var in string
	cmd.StringVar(&in, "in", "-", "Path to the atomic JSON document, or - for stdin")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	data, err := readInput(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	atom, err := atomic.Decode(data)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ours, strict, diverges, err := canonical.StrictJCSDivergence(atom)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	out, _ := json.MarshalIndent(map[string]any{
		"diverges": diverges,
		"ours":     string(ours),
		"strict":   string(strict),
	}, "", "  ")
	fmt.Fprintln(stdout, string(out))

	if diverges {
		return 1
	}
	return 0
}
