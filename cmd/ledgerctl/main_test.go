package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonatomic/ledger/pkg/crypto"
)

func run(args ...string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer
	code = Run(append([]string{"ledgerctl"}, args...), &out, &errOut)
	return out.String(), errOut.String(), code
}

func sampleLine() string {
	return `{"schema_version":"1.1.0","entity_type":"decision","this":{"summary":"x"},"did":{"actor":"alice","action":"create"},"metadata":{"trace_id":"11111111-1111-1111-1111-111111111111","created_at":"2026-01-01T00:00:00Z"}}`
}

func TestRun_UnknownCommandExitsTwo(t *testing.T) {
	_, stderr, code := run("bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command")
}

func TestRun_NoArgsPrintsUsageAndExitsTwo(t *testing.T) {
	_, _, code := run()
	assert.Equal(t, 2, code)
}

func TestRun_HelpExitsZero(t *testing.T) {
	stdout, _, code := run("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "ledgerctl")
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunHashCmd_PrintsHash(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("hash", "--in", path)
	require.Equal(t, 0, code)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Len(t, result["hash"], 64)
}

func TestRunHashCmd_MalformedInputExitsTwo(t *testing.T) {
	path := writeTempFile(t, "{not-json")
	_, stderr, code := run("hash", "--in", path)
	assert.Equal(t, 2, code)
	assert.NotEmpty(t, stderr)
}

func TestRunSignCmd_RequiresKey(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	t.Setenv("SIGNING_KEY_HEX", "")
	_, stderr, code := run("sign", "--in", path)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--key")
}

func TestRunSignCmd_ProducesHashAndSignature(t *testing.T) {
	priv, _, err := crypto.GenerateKeys()
	require.NoError(t, err)
	path := writeTempFile(t, sampleLine())

	stdout, _, code := run("sign", "--in", path, "--key", hex.EncodeToString(priv))
	require.Equal(t, 0, code)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.NotEmpty(t, result["hash"])
	assert.NotEmpty(t, result["signature"])
}

func TestRunGenerateKeysCmd_ProducesHexKeypair(t *testing.T) {
	stdout, _, code := run("generate-keys")
	require.Equal(t, 0, code)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	privBytes, err := hex.DecodeString(result["private_key_hex"])
	require.NoError(t, err)
	assert.Len(t, privBytes, 64)
	pubBytes, err := hex.DecodeString(result["public_key_hex"])
	require.NoError(t, err)
	assert.Len(t, pubBytes, 32)
}

func TestRunLintCmd_ReportsNoDivergenceForPlainAtomic(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("lint", "--in", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"diverges": false`)
}

func TestRunVerifyCmd_RequiresFile(t *testing.T) {
	_, stderr, code := run("verify")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--ledger")
}

func TestRunVerifyCmd_ValidUnsignedLedgerExitsZero(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("verify", "--ledger", path, "--check-prev-chain=false")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "total=1")
	assert.Contains(t, stdout, "unsigned=1")
}

func TestRunVerifyCmd_InvalidChainExitsOne(t *testing.T) {
	path := writeTempFile(t, sampleLine()+"\n"+sampleLine()+"\n")
	_, _, code := run("verify", "--ledger", path, "--check-prev-chain=true")
	assert.Equal(t, 1, code)
}

func TestRunVerifyCmd_RejectsUnknownOutputFormat(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	_, stderr, code := run("verify", "--ledger", path, "--output", "xml")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--output")
}

func TestRunVerifyCmd_NDJSONOutputEmitsOneLinePerAtomic(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("verify", "--ledger", path, "--check-prev-chain=false", "--output", "ndjson")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"LineNumber"`)
}

func TestRunStatsCmd_RequiresFile(t *testing.T) {
	_, stderr, code := run("stats")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--file")
}

func TestRunStatsCmd_SummarizesLedger(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("stats", "--file", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"Total": 1`)
}

func TestRunQueryCmd_FiltersByTraceID(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("query", "--file", path, "--trace-id", "11111111-1111-1111-1111-111111111111")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "alice")
}

func TestRunQueryCmd_NoMatchesStillExitsZero(t *testing.T) {
	path := writeTempFile(t, sampleLine())
	stdout, _, code := run("query", "--file", path, "--trace-id", "nonexistent")
	require.Equal(t, 0, code)
	assert.Empty(t, stdout)
}
