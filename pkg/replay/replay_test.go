package replay

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_NowAdvancesByFixedStep(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(base, time.Second)

	assert.Equal(t, base, c.Now())
	assert.Equal(t, base.Add(time.Second), c.Now())
	assert.Equal(t, base.Add(2*time.Second), c.Now())
	assert.Equal(t, 3, c.Ticks())
}

func TestClock_ResetReplaysIdenticalSequence(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(base, time.Minute)

	first := []time.Time{c.Now(), c.Now(), c.Now()}
	c.Reset()
	second := []time.Time{c.Now(), c.Now(), c.Now()}

	assert.Equal(t, first, second)
	assert.Equal(t, 3, c.Ticks())
}

func TestPRNG_SameSeedProducesSameSequence(t *testing.T) {
	a := NewPRNG(42)
	b := NewPRNG(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestPRNG_DifferentSeedsDiverge(t *testing.T) {
	a := NewPRNG(1)
	b := NewPRNG(2)
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestPRNG_ReadFillsDeterministicBytes(t *testing.T) {
	a := NewPRNG(7)
	b := NewPRNG(7)

	bufA := make([]byte, 37) // not a multiple of 8, exercises the partial-word tail
	bufB := make([]byte, 37)
	n, err := a.Read(bufA)
	require.NoError(t, err)
	assert.Equal(t, 37, n)
	_, err = b.Read(bufB)
	require.NoError(t, err)
	assert.Equal(t, bufA, bufB)
}

func deterministicOp(clock *Clock, prng *PRNG, policyOrder []string) (Execution, error) {
	t := clock.Now()
	n := prng.Uint64()
	hash := fmt.Sprintf("%d-%d-%s", t.UnixNano(), n, strings.Join(policyOrder, ","))
	sig := fmt.Sprintf("%d", prng.Uint64())
	return Execution{Hash: hash, SignatureHex: sig}, nil
}

func TestPRNGFromSeed_SameStringSeedProducesSameSequence(t *testing.T) {
	a := NewPRNGFromSeed("replay-seed-1")
	b := NewPRNGFromSeed("replay-seed-1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestPRNGFromSeed_DifferentStringSeedsDiverge(t *testing.T) {
	a := NewPRNGFromSeed("alpha")
	b := NewPRNGFromSeed("beta")
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestController_CompareMatchesIdenticalReplay(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	order := []string{"ttl", "slow", "throttle", "breaker"}

	baselineCtrl := NewController(base, time.Second, "seed-99", order)
	baseline, err := baselineCtrl.Run(deterministicOp)
	require.NoError(t, err)

	replayCtrl := NewController(base, time.Second, "seed-99", order)
	div, err := replayCtrl.Compare(baseline, deterministicOp)
	require.NoError(t, err)
	assert.True(t, div.Matches())
	assert.True(t, div.HashMatches)
	assert.True(t, div.SignatureMatches)
}

func TestController_CompareDetectsDivergentSeed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	order := []string{"ttl", "slow", "throttle", "breaker"}

	baselineCtrl := NewController(base, time.Second, "seed-99", order)
	baseline, err := baselineCtrl.Run(deterministicOp)
	require.NoError(t, err)

	replayCtrl := NewController(base, time.Second, "seed-100", order)
	div, err := replayCtrl.Compare(baseline, deterministicOp)
	require.NoError(t, err)
	assert.False(t, div.Matches())
}

func TestController_CompareDetectsDivergentPolicyOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	baselineCtrl := NewController(base, time.Second, "seed-99", []string{"ttl", "throttle"})
	baseline, err := baselineCtrl.Run(deterministicOp)
	require.NoError(t, err)

	replayCtrl := NewController(base, time.Second, "seed-99", []string{"throttle", "ttl"})
	div, err := replayCtrl.Compare(baseline, deterministicOp)
	require.NoError(t, err)
	assert.False(t, div.Matches())
}

func TestController_RunResetsClockEachTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := NewController(base, time.Second, "seed-1", nil)

	_, err := ctrl.Run(deterministicOp)
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.Clock.Ticks())

	_, err = ctrl.Run(deterministicOp)
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.Clock.Ticks())
}
