// Package multiplier implements Knuth-Schroeppel multiplier selection
// (component C2): choosing a small k so that kN has favourable
// quadratic-residue structure over the initial primes, maximising the
// density of factor-base primes. Ported from
// original_source/src/QS.cpp's knuthSchroeppel.
package multiplier

import (
	"math"

	"github.com/ncw/gmp"

	"github.com/relprime/simpqs/internal/modarith"
)

// Candidates is the fixed set of multipliers spec.md §3 allows.
var Candidates = []uint64{1, 2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43}

const scanLimit = 10000

// Select returns the multiplier k maximising the Knuth-Schroeppel score,
// and kN.
func Select(n *gmp.Int) (uint64, *gmp.Int) {
	nmod8 := new(gmp.Int).Mod(n, gmp.NewInt(8)).Int64()

	scores := make([]float64, len(Candidates))
	for i, k := range Candidates {
		mod := (nmod8 * int64(k)) % 8
		score := math.Ln2 / 2
		switch mod {
		case 1:
			score *= 4.0
		case 5:
			score *= 2.0
		}
		score -= math.Log(float64(k)) / 2.0
		scores[i] = score
	}

	prime := gmp.NewInt(3)
	for prime.Cmp(gmp.NewInt(scanLimit)) < 0 {
		p := prime.Uint64()
		logpdivp := math.Log(float64(p)) / float64(p)
		kron := modarith.Jacobi(n, prime)

		for i, k := range Candidates {
			kk := modarith.JacobiWord(int64(k), p)
			switch kron * kk {
			case 0:
				scores[i] += logpdivp
			case 1:
				scores[i] += 2.0 * logpdivp
			}
		}

		prime = nextPrime(prime)
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	k := Candidates[best]
	kn := new(gmp.Int).Mul(n, gmp.NewInt(int64(k)))
	return k, kn
}

// nextPrime returns the smallest prime strictly greater than p, testing
// candidates with gmp's ProbablyPrime; the scan only ever runs up to
// scanLimit so this need not be fast.
func nextPrime(p *gmp.Int) *gmp.Int {
	candidate := new(gmp.Int).Add(p, gmp.NewInt(1))
	if candidate.Bit(0) == 0 {
		candidate.Add(candidate, gmp.NewInt(1))
	}
	for !isPrime(candidate) {
		candidate.Add(candidate, gmp.NewInt(2))
	}
	return candidate
}

func isPrime(n *gmp.Int) bool {
	return n.ProbablyPrime(20)
}
