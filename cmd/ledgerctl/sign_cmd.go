package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jsonatomic/ledger/pkg/atomic"
	"github.com/jsonatomic/ledger/pkg/crypto"
)

// runSignCmd implements `ledgerctl sign`: reads an atomic JSON document,
// computes its hash and an Ed25519 signature envelope (spec §4.3).
//
// Exit codes: 0 = signed, 2 = runtime/input error.
func runSignCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in         string
		keyHex     string
		jsonOutput bool
	)
	cmd.StringVar(&in, "in", "-", "Path to the atomic JSON document, or - for stdin")
	cmd.StringVar(&keyHex, "key", os.Getenv("SIGNING_KEY_HEX"), "Hex-encoded Ed25519 private key (default: $SIGNING_KEY_HEX)")
	cmd.BoolVar(&jsonOutput, "output-json", true, "Has no effect: the result is always printed as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if keyHex == "" {
		fmt.Fprintln(stderr, "Error: --key or SIGNING_KEY_HEX is required")
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

	privBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		fmt.Fprintf(stderr, "Error: malformed --key hex: %v\n", err)
		return 2
	}
	signer := crypto.NewSigner(privBytes)

	hash, env, err := signer.Sign(atom)
	if err != nil {
		fmt.Fprintf(stderr, "Error: sign failed: %v\n", err)
		return 2
	}

	result := map[string]any{"hash": hash, "signature": env}
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(stdout, string(out))
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
