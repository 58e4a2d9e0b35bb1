package sieve

import (
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relprime/simpqs/internal/factorbase"
	"github.com/relprime/simpqs/internal/params"
	"github.com/relprime/simpqs/internal/poly"
)

func smallSetup(t *testing.T) (*Engine, *Evaluator, *poly.State) {
	t.Helper()
	n, ok := new(gmp.Int).SetString("1000003000007", 10)
	require.True(t, ok)
	k := uint64(1)
	kn := new(gmp.Int).Mul(n, gmp.NewInt(int64(k)))

	tbl := params.Table{
		NumPrimes:  60,
		Mdiv2:      params.CacheBlockSize / 2,
		FirstPrime: 4,
	}
	tbl.SecondPrime = tbl.NumPrimes
	tbl.MidPrime = tbl.NumPrimes
	tbl.LargePrime = 1_000_000
	tbl.ErrorBits = 18

	fb := factorbase.Build(kn, k, tbl.NumPrimes)
	gen := poly.NewGenerator(fb, kn, tbl.Mdiv2, 999)
	st := gen.NextA()

	e := New(tbl, fb.Primes, fb.Sizes)
	e.Reset(st)
	e.Sieve(st)

	ev := NewEvaluator(e, 40, tbl.ErrorBits, tbl.LargePrime, fb.Primes, fb.Sizes)
	return e, ev, st
}

func TestAccumulatorHasSentinelPastEnd(t *testing.T) {
	e, _, _ := smallSetup(t)
	assert.EqualValues(t, Sentinel, e.Accum[e.M()])
}

func TestScanFindsAtLeastSomeCandidates(t *testing.T) {
	_, ev, _ := smallSetup(t)
	cands := ev.Scan()
	assert.NotEmpty(t, cands)
}

func TestScanRespectsThreshold(t *testing.T) {
	e, ev, _ := smallSetup(t)
	low := ev.Scan()

	strict := NewEvaluator(e, 250, ev.errorBits, ev.largePrime, ev.primes, ev.sizes)
	assert.LessOrEqual(t, len(strict.Scan()), len(low))
}

func TestEvaluateNeverPanicsOnCandidates(t *testing.T) {
	_, ev, st := smallSetup(t)
	for _, c := range ev.Scan() {
		res := ev.Evaluate(st, c)
		assert.Contains(t, []Classification{Reject, Full, Partial}, res.Class)
	}
}
