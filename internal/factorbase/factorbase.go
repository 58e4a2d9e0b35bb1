// Package factorbase builds the factor base (component C3): the ordered
// list of small primes p with (kN/p)=1, their rounded bit-lengths, and
// the precomputed square roots of kN modulo each. Ported from
// original_source/src/QS.cpp's computeFactorBase/computeSizes/
// tonelliShanks.
package factorbase

import (
	"math"

	"github.com/ncw/gmp"

	"github.com/relprime/simpqs/internal/modarith"
	"github.com/relprime/simpqs/internal/params"
)

// Base holds the resolved factor base for one kN.
type Base struct {
	Multiplier uint64
	Primes     []uint64   // p_0=k, p_1=2 (unless k=2), then odd primes with (kN/p)=1
	Sizes      []uint8    // rounded log2(p) - fudge, one per prime
	Sqrts      []*gmp.Int // sqrt(kN) mod p_i; nil for the multiplier p0 and for 2
}

// Build enumerates numPrimes factor-base primes for kN, given the
// multiplier k that produced it.
func Build(kn *gmp.Int, k uint64, numPrimes int) *Base {
	b := &Base{
		Multiplier: k,
		Primes:     make([]uint64, 0, numPrimes),
		Sizes:      make([]uint8, 0, numPrimes),
		Sqrts:      make([]*gmp.Int, 0, numPrimes),
	}

	b.Primes = append(b.Primes, k)
	b.Sqrts = append(b.Sqrts, nil)
	if k != 2 {
		b.Primes = append(b.Primes, 2)
		b.Sqrts = append(b.Sqrts, nil)
	}

	candidate := gmp.NewInt(3)
	for len(b.Primes) < numPrimes {
		if modarith.Jacobi(kn, candidate) == 1 {
			p := candidate.Uint64()
			b.Primes = append(b.Primes, p)
			root, ok := modarith.Sqrt(new(gmp.Int).Mod(kn, candidate), candidate)
			if !ok {
				panic("factorbase: Jacobi symbol 1 but Tonelli-Shanks found no root")
			}
			b.Sqrts = append(b.Sqrts, root)
		}
		candidate = nextOddPrime(candidate)
	}

	b.Sizes = computeSizes(b.Primes)
	return b
}

// computeSizes rounds log2(p) with the fudge factor from spec.md §4.3:
// primeSizes[i] = round(log2(p) - 0.15).
func computeSizes(primes []uint64) []uint8 {
	sizes := make([]uint8, len(primes))
	for i, p := range primes {
		if p <= 1 {
			sizes[i] = 0
			continue
		}
		sizes[i] = uint8(math.Floor(math.Log2(float64(p)) - params.FudgeFactor + 0.5))
	}
	return sizes
}

func nextOddPrime(p *gmp.Int) *gmp.Int {
	candidate := new(gmp.Int).Add(p, gmp.NewInt(2))
	for !candidate.ProbablyPrime(20) {
		candidate.Add(candidate, gmp.NewInt(2))
	}
	return candidate
}
