// Package modarith provides the bignum primitives the sieve treats as an
// external collaborator in the original design: Tonelli-Shanks square
// roots, the Jacobi symbol, and word-sized modular inverses. Multi-word
// values are github.com/ncw/gmp integers throughout, matching the
// GMP-backed arithmetic the teacher uses for its own GCD-heavy loops.
package modarith

import "github.com/ncw/gmp"

var (
	zero = gmp.NewInt(0)
	one  = gmp.NewInt(1)
	two  = gmp.NewInt(2)
)

// ModInverseWord returns a^-1 mod p for a prime p, using the extended
// Euclidean algorithm over machine words. p must be odd and a must be
// nonzero mod p. Mirrors QS.cpp's inline modinverse without its
// quotient-approximation shortcuts, which exist purely to avoid a
// division instruction on architectures where that mattered in 2006.
func ModInverseWord(a, p uint64) uint64 {
	var t, newT int64 = 0, 1
	var r, newR = int64(p), int64(a % p)
	for newR != 0 {
		quotient := r / newR
		t, newT = newT, t-quotient*newT
		r, newR = newR, r-quotient*newR
	}
	if t < 0 {
		t += int64(p)
	}
	return uint64(t)
}

// MulModWord returns a*b mod p, computed with a plain uint64
// multiplication; the product cannot overflow because factor-base
// primes and residues used here fit under 2^32 for every parameter
// table entry.
func MulModWord(a, b, p uint64) uint64 {
	return (a % p) * (b % p) % p
}

// AddModWord returns (a+b) mod p, for use in the sieve's per-block
// soln1/soln2 advancement. Factor-base primes never approach 2^63, so a
// plain sum cannot overflow a uint64.
func AddModWord(a, b, p uint64) uint64 {
	s := a + b
	if s >= p {
		s -= p
	}
	return s
}
