// Package chainverify implements C6: streaming, memory-bounded integrity
// verification with hash-chain continuity and fork detection (spec §4.6).
// Grounded on the teacher's pkg/ledger/ledger.go Verify() method (recompute
// hash, walk prev pointers), generalized from an in-memory slice walk to a
// single streaming pass with a 10 MiB per-line cap.
package chainverify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jsonatomic/ledger/pkg/atomic"
	"github.com/jsonatomic/ledger/pkg/crypto"
	"github.com/jsonatomic/ledger/pkg/errs"
)

// MaxLineBytes is the hard cap on a single ledger line (spec §4.6).
const MaxLineBytes = 10 * 1024 * 1024

// Status is the tri-state classification of one verified line.
type Status string

const (
	StatusValid    Status = "valid"
	StatusInvalid  Status = "invalid"
	StatusUnsigned Status = "unsigned"
)

// LineResult is the per-line outcome of a verify pass.
type LineResult struct {
	LineNumber int
	Hash       string
	Status     Status
	ErrorCode  errs.Code
	Error      string
}

// Options configures a verify pass (spec §4.6, §6.4).
type Options struct {
	TraceID        string // optional: only examine lines in this trace
	CheckPrevChain bool
	StopOnError    bool
	PublicKeyHex   string // optional: verify against this key instead of each atomic's declared key
}

// Summary is the result of a verify pass (spec §4.6).
type Summary struct {
	Total    int
	Valid    int
	Invalid  int
	Unsigned int
	Errors   []string
	Results  []LineResult
	// Forks maps a trace_id to the set of hashes that appear more than once
	// in that trace's chain (spec §4.6 fork detection / §9).
	Forks map[string][]string
}

type chainState struct {
	seenAny     bool
	prevHash    string
	traceHashes map[string]map[string]int // trace -> hash -> occurrence count
}

// VerifyFile opens path and runs a streaming verify pass over it.
func VerifyFile(ctx context.Context, path string, opts Options) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, errs.Wrap(errs.RepositoryError, "failed to open ledger file", err)
	}
	defer f.Close()
	return VerifyReader(ctx, f, opts)
}

// VerifyReader runs a streaming verify pass over r (spec §4.6 steps 1-8).
func VerifyReader(ctx context.Context, r io.Reader, opts Options) (Summary, error) {
	summary := Summary{Forks: map[string][]string{}}
	state := &chainState{traceHashes: map[string]map[string]int{}}

	br := bufio.NewReaderSize(r, 64*1024)
	lineNum := 0

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		line, tooLarge, readErr := readBoundedLine(br, MaxLineBytes)
		if len(line) == 0 && readErr == io.EOF {
			break
		}
		lineNum++

		if len(strings.TrimSpace(string(line))) == 0 && !tooLarge {
			if readErr == io.EOF {
				break
			}
			continue
		}

		res := processLine(state, lineNum, line, tooLarge, opts)
		if res.skip {
			if readErr == io.EOF {
				break
			}
			continue
		}

		summary.Total++
		switch res.result.Status {
		case StatusValid:
			summary.Valid++
		case StatusUnsigned:
			summary.Unsigned++
		default:
			summary.Invalid++
		}
		if res.result.Error != "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %s", lineNum, res.result.Error))
		}
		summary.Results = append(summary.Results, res.result)

		if readErr == io.EOF {
			break
		}
		if res.hardError && opts.StopOnError {
			break
		}
	}

	for trace, counts := range state.traceHashes {
		if opts.TraceID != "" && trace != opts.TraceID {
			continue
		}
		var dup []string
		for h, n := range counts {
			if n > 1 {
				dup = append(dup, h)
			}
		}
		if len(dup) > 0 {
			summary.Forks[trace] = dup
		}
	}

	return summary, nil
}

type lineOutcome struct {
	result    LineResult
	hardError bool
	skip      bool
}

func processLine(state *chainState, lineNum int, line []byte, tooLarge bool, opts Options) lineOutcome {
	if tooLarge {
		return lineOutcome{
			result:    LineResult{LineNumber: lineNum, Status: StatusInvalid, ErrorCode: errs.LineTooLarge, Error: "line exceeds 10 MiB"},
			hardError: true,
		}
	}

	atom, perr := atomic.Decode(line)
	if perr != nil {
		return lineOutcome{
			result:    LineResult{LineNumber: lineNum, Status: StatusInvalid, ErrorCode: errs.ParseError, Error: perr.Error()},
			hardError: true,
		}
	}

	traceID := atomic.TraceID(atom)
	if opts.TraceID != "" && traceID != opts.TraceID {
		return lineOutcome{skip: true}
	}

	var errCode errs.Code
	var errMsg string

	if opts.CheckPrevChain {
		prevVal, hasPrev := atomic.Prev(atom)
		isGenesis := !state.seenAny
		if isGenesis {
			if hasPrev {
				errCode, errMsg = errs.InvalidGenesis, "genesis atomic must not declare a prev field"
			}
		} else if !hasPrev {
			errCode, errMsg = errs.MissingPrev, "non-genesis atomic is missing its prev field"
		} else if !strings.EqualFold(prevVal, state.prevHash) {
			errCode, errMsg = errs.PrevMismatch, fmt.Sprintf("prev %q does not match preceding hash %q", prevVal, state.prevHash)
		}
	}

	declaredHash, _ := atom["hash"].(string)
	_, hasSig := atom["signature"]
	unsigned := declaredHash == "" || !hasSig

	recomputed, hashErr := crypto.Hash(atom)
	effectiveHash := declaredHash
	if effectiveHash == "" && hashErr == nil {
		effectiveHash = recomputed
	}

	if hashErr == nil {
		if declaredHash != "" && !strings.EqualFold(recomputed, declaredHash) {
			if errCode == "" {
				errCode, errMsg = errs.HashMismatch, "recomputed hash does not match stored hash"
			}
		}
		// Step 8: chain advances whenever the hash itself was computable,
		// independent of any prev-chain or signature failure already
		// recorded for this line, so the next line's prev is checked against
		// this line's hash.
		state.seenAny = true
		state.prevHash = effectiveHash
		byHash := state.traceHashes[traceID]
		if byHash == nil {
			byHash = map[string]int{}
			state.traceHashes[traceID] = byHash
		}
		byHash[effectiveHash]++
	}

	if !unsigned && errCode == "" {
		ok, verr := crypto.VerifyAtomic(atom, opts.PublicKeyHex)
		if verr != nil {
			errCode = errs.CodeOf(verr)
			if errCode == "" {
				errCode = errs.SignatureError
			}
			errMsg = verr.Error()
		} else if !ok {
			errCode, errMsg = errs.InvalidSignature, "signature does not verify"
		}
	}

	result := LineResult{LineNumber: lineNum, Hash: effectiveHash}
	switch {
	case errCode != "":
		result.Status = StatusInvalid
		result.ErrorCode = errCode
		result.Error = errMsg
	case unsigned:
		result.Status = StatusUnsigned
	default:
		result.Status = StatusValid
	}

	return lineOutcome{result: result, hardError: errCode != ""}
}

// readBoundedLine reads one '\n'-terminated line from br, bounded to
// maxBytes: if the line exceeds maxBytes, its remaining bytes are discarded
// in fixed-size chunks (never buffered in full) and tooLarge is reported,
// keeping memory proportional to maxBytes rather than the offending line's
// actual size (spec §4.6/§5, property P7).
func readBoundedLine(br *bufio.Reader, maxBytes int) (line []byte, tooLarge bool, err error) {
	var buf []byte
	for {
		chunk, rerr := br.ReadSlice('\n')
		if len(chunk) > 0 {
			if !tooLarge {
				if len(buf)+len(chunk) > maxBytes {
					tooLarge = true
				} else {
					buf = append(buf, chunk...)
				}
			}
		}
		if rerr == nil {
			return trimNewline(buf), tooLarge, nil
		}
		if rerr == bufio.ErrBufferFull {
			continue // still inside one logical line; keep discarding/accumulating
		}
		// EOF or other error terminates the stream.
		return trimNewline(buf), tooLarge, rerr
	}
}

func trimNewline(b []byte) []byte {
	return []byte(strings.TrimRight(string(b), "\r\n"))
}
