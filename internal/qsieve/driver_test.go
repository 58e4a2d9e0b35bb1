package qsieve

import (
	"os"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relprime/simpqs/internal/sieve"
	"github.com/relprime/simpqs/internal/tmpfile"
)

func partialResult(x int64, q uint64) sieve.Result {
	return sieve.Result{
		Class:      sieve.Partial,
		X:          gmp.NewInt(x),
		Q:          gmp.NewInt(0),
		Exponents:  map[int]int{},
		LargePrime: q,
	}
}

func TestNewSieveContextBuildsFactorBaseOfRequestedSize(t *testing.T) {
	n, ok := new(gmp.Int).SetString("10000000000000000000000000000000000000067", 10)
	require.True(t, ok)

	ctx := NewSieveContext(n, Config{Seed: 42})
	assert.Len(t, ctx.FB.Primes, ctx.Table.NumPrimes)
	assert.Zero(t, ctx.KN.Cmp(new(gmp.Int).Mul(n, gmp.NewInt(int64(ctx.K)))))
}

func TestDedupeFactorsRemovesDuplicates(t *testing.T) {
	fs := []*gmp.Int{gmp.NewInt(3), gmp.NewInt(3), gmp.NewInt(7)}
	out := dedupeFactors(fs)
	assert.Len(t, out, 2)
}

func TestRecordResultWritesFullRelationsToDisk(t *testing.T) {
	n, ok := new(gmp.Int).SetString("10403", 10)
	require.True(t, ok)
	ctx := NewSieveContext(n, Config{Seed: 1})
	d, err := NewDriver(ctx)
	require.NoError(t, err)
	defer d.Close()

	full := sieve.Result{Class: sieve.Full, X: gmp.NewInt(202), Exponents: map[int]int{0: 2}}
	require.NoError(t, d.recordResult(full))
	assert.Equal(t, 1, d.fullCount)

	data, err := os.ReadFile(d.FullRelationsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "202")
}

func TestFlushRoutesUnmatchedPartialThroughCarryStream(t *testing.T) {
	n, ok := new(gmp.Int).SetString("10403", 10)
	require.True(t, ok)
	ctx := NewSieveContext(n, Config{Seed: 1, RelFlushBase: 1})
	d, err := NewDriver(ctx)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.recordResult(partialResult(11, 7)))
	assert.Zero(t, d.fullCount)
	assert.True(t, d.haveCarry)

	carryData, err := os.ReadFile(tmpfile.Name(d.carryBase))
	require.NoError(t, err)
	assert.Contains(t, string(carryData), "7 @")
}

func TestRecordResultCombinesMatchingPartials(t *testing.T) {
	n, ok := new(gmp.Int).SetString("10403", 10) // 101 * 103
	require.True(t, ok)
	// RelFlushBase: 1 forces every pending partial straight through the
	// sort/merge/combine pipeline, so the second partial sharing q=7
	// pairs against the first via the on-disk carry stream.
	ctx := NewSieveContext(n, Config{Seed: 1, RelFlushBase: 1})
	d, err := NewDriver(ctx)
	require.NoError(t, err)
	defer d.Close()

	err = d.recordResult(partialResult(11, 7))
	require.NoError(t, err)
	assert.Zero(t, d.fullCount)

	err = d.recordResult(partialResult(13, 7))
	require.NoError(t, err)
	assert.NotZero(t, d.fullCount)
}
