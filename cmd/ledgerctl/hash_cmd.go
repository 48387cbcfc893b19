package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/jsonatomic/ledger/pkg/atomic"
	"github.com/jsonatomic/ledger/pkg/crypto"
)

// runHashCmd implements `ledgerctl hash`: prints the canonical BLAKE3 hash
// of an atomic (spec §4.2).
//
// Exit codes: 0 = hashed, 2 = runtime/input error.
func runHashCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("hash", flag.ContinueOnError)
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

	hash, err := crypto.Hash(atom)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	out, _ := json.Marshal(map[string]string{"hash": hash})
	fmt.Fprintln(stdout, string(out))
	return 0
}
