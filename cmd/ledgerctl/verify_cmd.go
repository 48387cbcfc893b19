package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/jsonatomic/ledger/pkg/chainverify"
)

// runVerifyCmd implements `ledgerctl verify`: streams a ledger file
// checking hash-chain continuity and signatures (spec §4.6, §6.4).
//
// Exit codes:
//
//	0 = every line valid or advisory-unsigned, no invalid lines, no forks
//	1 = at least one invalid line (hash/chain/signature failure) or a fork
//	2 = runtime error
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		ledgerPath     string
		traceID        string
		checkPrevChain bool
		stopOnError    bool
		keyHex         string
		output         string
	)
	cmd.StringVar(&ledgerPath, "ledger", "", "Path to the ledger NDJSON file (REQUIRED)")
	cmd.StringVar(&traceID, "trace-id", "", "Restrict verification to one trace_id")
	cmd.BoolVar(&checkPrevChain, "check-prev-chain", true, "Verify prev hash-chain continuity")
	cmd.BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first invalid line")
	cmd.StringVar(&keyHex, "key", "", "Verify against this hex public key instead of each atomic's own")
	cmd.StringVar(&output, "output", "table", "Output format: json, ndjson, or table")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if ledgerPath == "" {
		fmt.Fprintln(stderr, "Error: --ledger is required")
		return 2
	}
	switch output {
	case "json", "ndjson", "table":
	default:
		fmt.Fprintf(stderr, "Error: --output must be one of json, ndjson, table (got %q)\n", output)
		return 2
	}

	summary, err := chainverify.VerifyFile(context.Background(), ledgerPath, chainverify.Options{
		TraceID:        traceID,
		CheckPrevChain: checkPrevChain,
		StopOnError:    stopOnError,
		PublicKeyHex:   keyHex,
	})
	if err != nil {
		writeVerifyError(stderr, output, err)
		return 2
	}

	switch output {
	case "json":
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Fprintln(stdout, string(out))
	case "ndjson":
		for _, r := range summary.Results {
			line, _ := json.Marshal(r)
			fmt.Fprintln(stdout, string(line))
		}
	default: // table
		fmt.Fprintf(stdout, "total=%d valid=%d invalid=%d unsigned=%d\n", summary.Total, summary.Valid, summary.Invalid, summary.Unsigned)
		for _, e := range summary.Errors {
			fmt.Fprintf(stdout, "  %s\n", e)
		}
		for trace, forks := range summary.Forks {
			fmt.Fprintf(stdout, "  fork detected in trace %s: %v\n", trace, forks)
		}
	}

	if summary.Invalid > 0 || len(summary.Forks) > 0 {
		return 1
	}
	return 0
}

// writeVerifyError renders a runtime error as {code, message, details?}
// under --output json (spec §6.4/§6.5), or a one-line human string
// otherwise.
func writeVerifyError(stderr io.Writer, output string, err error) {
	if output == "json" {
		out, _ := json.Marshal(map[string]any{"code": "REPOSITORY_ERROR", "message": err.Error()})
		fmt.Fprintln(stderr, string(out))
		return
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
}
