package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/jsonatomic/ledger/pkg/crypto"
)

// runGenerateKeysCmd implements `ledgerctl generate-keys`: creates a fresh
// Ed25519 keypair (spec §4.3).
//
// Exit codes: 0 = generated, 2 = runtime error.
func runGenerateKeysCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("generate-keys", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	priv, pub, err := crypto.GenerateKeys()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	out, _ := json.MarshalIndent(map[string]string{
		"private_key_hex": hex.EncodeToString(priv),
		"public_key_hex":  hex.EncodeToString(pub),
	}, "", "  ")
	fmt.Fprintln(stdout, string(out))
	return 0
}
