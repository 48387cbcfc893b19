// Command ledgerctl is the operator CLI for the ledger engine: signing,
// hashing, chain verification, strict-JCS linting, key generation, stats,
// and query against an NDJSON ledger file. Grounded on the teacher's
// cmd/helm/main.go dispatch switch and per-subcommand flag.FlagSet idiom
// (cmd/helm/verify_cmd.go), generalized from an HTTP-service CLI to a
// standalone ledger-file tool.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, split out from main for testability.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "sign":
		return runSignCmd(args[2:], stdout, stderr)
	case "hash":
		return runHashCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "lint":
		return runLintCmd(args[2:], stdout, stderr)
	case "generate-keys":
		return runGenerateKeysCmd(args[2:], stdout, stderr)
	case "stats":
		return runStatsCmd(args[2:], stdout, stderr)
	case "query":
		return runQueryCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ledgerctl - cryptographic ledger engine CLI")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  ledgerctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  sign           Sign an atomic, printing its hash and signature envelope")
	fmt.Fprintln(w, "  hash           Compute the canonical hash of an atomic")
	fmt.Fprintln(w, "  verify         Verify a ledger file's hash chain and signatures")
	fmt.Fprintln(w, "  lint           Report divergence from strict RFC 8785 canonicalization")
	fmt.Fprintln(w, "  generate-keys  Generate a new Ed25519 keypair")
	fmt.Fprintln(w, "  stats          Summarize a ledger file")
	fmt.Fprintln(w, "  query          Query a ledger file by trace/entity/owner/tenant/date")
	fmt.Fprintln(w, "  help           Show this help")
}
