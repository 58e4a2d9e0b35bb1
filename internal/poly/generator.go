// Package poly implements self-initialising polynomial generation
// (component C4): choosing A as a product of s factor-base primes near a
// target, deriving the 2^(s-1) sibling B-values by Gray-code sign flips,
// and maintaining per-prime roots for the sieve. Ported from
// original_source/src/QS.cpp's A/B/C selection in mainRoutine and its
// Gray-code polyindex loop.
package poly

import (
	"github.com/ncw/gmp"

	"github.com/relprime/simpqs/internal/factorbase"
	"github.com/relprime/simpqs/internal/modarith"
)

// SentinelSoln2 marks an absent soln2 for the s primes dividing A
// (spec.md §3, §4.4): "soln2 is marked absent (sentinel 0xFFFFFFFF)".
const SentinelSoln2 = 0xFFFFFFFF

// Generator produces successive polynomial families sharing one A.
type Generator struct {
	fb    *factorbase.Base
	kn    *gmp.Int
	mdiv2 uint64
	s     int
	span  int64
	min   int64
	target *gmp.Int // T = floor(sqrt(2*kN)/Mdiv2)
	rng   *lcg
}

// NewGenerator builds a Generator for the given factor base and kN,
// sieving interval half-width Mdiv2, and RNG seed (0 selects the
// original's default seed).
func NewGenerator(fb *factorbase.Base, kn *gmp.Int, mdiv2 uint64, seed uint64) *Generator {
	s := sCount(kn)

	twoN := new(gmp.Int).Mul(kn, gmp.NewInt(2))
	sqrt2n := new(gmp.Int).Sqrt(twoN)
	target := new(gmp.Int).Quo(sqrt2n, new(gmp.Int).SetUint64(mdiv2))

	// fact = index of the smallest factor-base prime exceeding
	// target^(1/s).
	root := nthRoot(target, s)
	fact := firstIndexAbove(fb.Primes, root, 0)

	numPrimes := int64(len(fb.Primes))
	span := numPrimes / int64(s) / int64(s) / 2
	min := int64(fact) - span/2
	for (int64(fact)*int64(fact))/min-min < span {
		min--
	}

	return &Generator{
		fb:     fb,
		kn:     kn,
		mdiv2:  mdiv2,
		s:      s,
		span:   span,
		min:    min,
		target: target,
		rng:    newLCG(seed),
	}
}

// sCount returns s = ceil(log2(kN)/28), the number of factor-base primes
// whose product forms A (spec.md §4.4).
func sCount(kn *gmp.Int) int {
	bits := kn.BitLen()
	return (bits-1)/28 + 1
}

// nthRoot returns floor(x^(1/n)) via Newton's method, since neither
// math/big.Int nor its gmp mirror expose a general integer root (only
// Sqrt, for n=2).
func nthRoot(x *gmp.Int, n int) *gmp.Int {
	if n <= 1 {
		return new(gmp.Int).Set(x)
	}
	if n == 2 {
		return new(gmp.Int).Sqrt(x)
	}
	if x.Sign() == 0 {
		return gmp.NewInt(0)
	}

	nBig := gmp.NewInt(int64(n))
	nMinus1 := gmp.NewInt(int64(n - 1))

	// Initial guess: 2^(floor(bitlen(x)/n) + 1), which is above the root.
	guess := new(gmp.Int).Lsh(gmp.NewInt(1), uint(x.BitLen()/n+1))

	for {
		// next = ((n-1)*guess + x/guess^(n-1)) / n
		gPow := new(gmp.Int).Set(guess)
		for i := 1; i < n-1; i++ {
			gPow.Mul(gPow, guess)
		}
		term := new(gmp.Int).Quo(x, gPow)
		next := new(gmp.Int).Mul(nMinus1, guess)
		next.Add(next, term)
		next.Quo(next, nBig)

		if next.Cmp(guess) >= 0 {
			break
		}
		guess = next
	}
	return guess
}

// firstIndexAbove returns the smallest index i >= start such that
// primes[i] > target, mirroring QS.cpp's `for (fact=...; cmp(temp,fb[fact])>=0; fact++)`.
func firstIndexAbove(primes []uint64, target *gmp.Int, start int) int {
	i := start
	for i < len(primes) {
		if target.Cmp(new(gmp.Int).SetUint64(primes[i])) < 0 {
			break
		}
		i++
	}
	return i
}

// State is one A-family's shared data plus the currently active
// sibling's B, C and per-prime solutions.
type State struct {
	gen *Generator

	A      *gmp.Int
	B      *gmp.Int
	C      *gmp.Int
	Bterms []*gmp.Int
	Aind   []int    // factor-base indices whose product is A
	Amodp  []uint64 // (A/p_j) mod p_j for each A-prime

	Ainv   []uint64   // A^-1 mod p, per factor-base prime
	Ainv2B [][]uint64 // Ainv2B[j][i] = 2*Ainv[i]*Bterms[j] mod p_i

	Soln1 []uint64
	Soln2 []uint64

	polyIndex int
	numSibs   int // 2^(s-1)
}

// NextA builds a fresh A and the first sibling's B, C and per-prime
// state, ready for sieving.
func (g *Generator) NextA() *State {
	primes := g.fb.Primes
	s := g.s

	aind := make([]int, s)
	chosen := make(map[int]bool, s)

	pickUnique := func(start int64) int {
		ran := start
		for {
			ran++
			off := int(ran)
			if !chosen[off] {
				return off
			}
		}
	}

	i := 0
	for i < s-1 {
		start := g.span/2 + int64(g.rng.next(uint64(maxInt64(g.span/2, 1))))
		off := pickUnique(start)
		aind[i] = off
		chosen[off] = true
		i++

		if i < s-1 {
			base := (g.min + g.span/2) * (g.min + g.span/2)
			denom := int64(off) + g.min
			ran := base/denom - int64(g.rng.next(10)) - g.min
			off2 := pickUnique(ran)
			aind[i] = off2
			chosen[off2] = true
			i++
		}
	}

	A := gmp.NewInt(1)
	for _, off := range aind[:i] {
		A.Mul(A, new(gmp.Int).SetUint64(primes[off+int(g.min)]))
	}

	// Final factor: bring A close to target deterministically.
	remaining := new(gmp.Int).Quo(g.target, A)
	fact := firstIndexAbove(primes, remaining, 1) - int(g.min)
	for {
		if !chosen[fact] {
			break
		}
		fact++
	}
	aind[s-1] = fact
	chosen[fact] = true
	A.Mul(A, new(gmp.Int).SetUint64(primes[fact+int(g.min)]))

	st := &State{
		gen:     g,
		A:       A,
		Aind:    make([]int, s),
		Amodp:   make([]uint64, s),
		Bterms:  make([]*gmp.Int, s),
		Ainv:    make([]uint64, len(primes)),
		Ainv2B:  make([][]uint64, s),
		Soln1:   make([]uint64, len(primes)),
		Soln2:   make([]uint64, len(primes)),
		numSibs: 1 << uint(s-1),
	}
	for j := range st.Ainv2B {
		st.Ainv2B[j] = make([]uint64, len(primes))
	}
	for j, off := range aind {
		st.Aind[j] = off + int(g.min)
	}

	st.computeBTerms()
	st.computeB()
	st.computePerPrimeInit()
	st.computeC()

	return st
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// computeBTerms computes each B_j = (A/p) * ((gamma^-1 * r_p) mod p),
// sign-adjusted so |B_j mod p| <= p/2 (spec.md §4.4).
func (s *State) computeBTerms() {
	primes := s.gen.fb.Primes
	sqrts := s.gen.fb.Sqrts

	for j, idx := range s.Aind {
		p := primes[idx]
		AoverP := new(gmp.Int).Quo(s.A, new(gmp.Int).SetUint64(p))
		gamma := new(gmp.Int).Mod(AoverP, new(gmp.Int).SetUint64(p)).Uint64()
		s.Amodp[j] = gamma

		gammaInv := modarith.ModInverseWord(gamma, p)
		r := sqrts[idx].Uint64()
		v := modarith.MulModWord(gammaInv, r, p)
		if v > p/2 {
			v = p - v
			// B_j = -(A/p)*v
			term := new(gmp.Int).Mul(AoverP, new(gmp.Int).SetUint64(v))
			s.Bterms[j] = term.Neg(term)
			continue
		}
		term := new(gmp.Int).Mul(AoverP, new(gmp.Int).SetUint64(v))
		s.Bterms[j] = term
	}
}

func (s *State) computeB() {
	b := gmp.NewInt(0)
	for _, term := range s.Bterms {
		b.Add(b, term)
	}
	s.B = b
}

// computePerPrimeInit computes Ainv, Ainv2B and the first sibling's
// soln1/soln2 for every factor-base prime (spec.md §4.4).
func (s *State) computePerPrimeInit() {
	primes := s.gen.fb.Primes
	sqrts := s.gen.fb.Sqrts
	mdiv2 := s.gen.mdiv2

	for i, p := range primes {
		if sqrts[i] == nil {
			// p0 (the multiplier) and possibly p1 (2) carry no
			// meaningful root; the evaluator always trial-divides
			// them unconditionally (spec.md §4.6).
			continue
		}

		aInv := modarith.ModInverseWord(new(gmp.Int).Mod(s.A, new(gmp.Int).SetUint64(p)).Uint64(), p)
		s.Ainv[i] = aInv

		for j := range s.Bterms {
			bj := new(gmp.Int).Mod(s.Bterms[j], new(gmp.Int).SetUint64(p)).Uint64()
			s.Ainv2B[j][i] = modarith.MulModWord(bj, 2*aInv%p, p)
		}

		r := sqrts[i].Uint64()
		bModP := new(gmp.Int).Mod(s.B, new(gmp.Int).SetUint64(p)).Uint64()

		soln1 := modarith.MulModWord(aInv, (r+p-bModP)%p, p)
		soln1 = modarith.AddModWord(soln1, mdiv2%p, p)
		s.Soln1[i] = soln1

		negR := (p - r) % p
		soln2 := modarith.MulModWord(aInv, (negR+p-bModP)%p, p)
		s.Soln2[i] = modarith.AddModWord(soln2, mdiv2%p, p)
	}

	s.recomputeAPrimeSolutions()
}

func (s *State) computeC() {
	bsq := new(gmp.Int).Mul(s.B, s.B)
	bsq.Sub(bsq, s.gen.kn)
	c := new(gmp.Int).Quo(bsq, s.A)
	s.C = c
}

// HasNextSibling reports whether NextSibling can still be called for the
// current A-family.
func (s *State) HasNextSibling() bool {
	return s.polyIndex+1 < s.numSibs
}

// NextSibling advances to the next Gray-code sibling, flipping exactly
// one B-term's sign and updating soln1/soln2 for every factor-base prime
// (spec.md §4.4 "Sibling iteration (Gray code)"). Returns false once the
// family (2^(s-1) siblings, indices 0..numSibs-1, index 0 having already
// been produced by NextA) is exhausted.
func (s *State) NextSibling() bool {
	if s.polyIndex+1 >= s.numSibs {
		return false
	}
	s.polyIndex++

	idx := s.polyIndex
	j := lowestSetBit(idx)
	flipAdd := (idx>>uint(j+1))&1 != 0

	term2 := new(gmp.Int).Mul(s.Bterms[j], gmp.NewInt(2))
	if flipAdd {
		s.B.Add(s.B, term2)
	} else {
		s.B.Sub(s.B, term2)
	}

	primes := s.gen.fb.Primes
	corr := s.Ainv2B[j]
	for i, p := range primes {
		if s.gen.fb.Sqrts[i] == nil {
			continue
		}
		// soln = Ainv*(+-r - B) + Mdiv2, so raising B by 2*B_j lowers
		// each root by Ainv2B[j] and lowering B raises it.
		if flipAdd {
			s.Soln1[i] = modarith.AddModWord(s.Soln1[i], p-corr[i]%p, p)
			if s.Soln2[i] != SentinelSoln2 {
				s.Soln2[i] = modarith.AddModWord(s.Soln2[i], p-corr[i]%p, p)
			}
		} else {
			s.Soln1[i] = modarith.AddModWord(s.Soln1[i], corr[i], p)
			if s.Soln2[i] != SentinelSoln2 {
				s.Soln2[i] = modarith.AddModWord(s.Soln2[i], corr[i], p)
			}
		}
	}

	s.recomputeAPrimeSolutions()
	s.computeC()
	return true
}

// recomputeAPrimeSolutions redoes soln1 for each A-prime directly from B
// mod p^2, handling the prime-power lift the plain Ainv2B correction
// cannot (spec.md §4.4 "For each A-prime index a_j: recompute soln1
// directly from B mod p^2 ... and the prime-power lift").
func (s *State) recomputeAPrimeSolutions() {
	primes := s.gen.fb.Primes
	mdiv2 := s.gen.mdiv2

	for j, idx := range s.Aind {
		p := primes[idx]
		p2Big := new(gmp.Int).SetUint64(p)
		p2Big.Mul(p2Big, p2Big)

		D := new(gmp.Int).Mod(s.gen.kn, p2Big)
		bDivP2Big := new(gmp.Int).Mod(s.B, p2Big)
		bModP := bDivP2Big.Uint64() % p

		// Q(x) mod p reduces to 2*B*x + C, since p | A. Solve
		// x = -C * (2B)^-1 mod p, computing C mod p as
		// ((B^2-kN)/p mod p) * (A/p)^-1 mod p without ever forming C
		// itself (it depends on the sibling's B and isn't otherwise
		// needed here). The (B^2-kN)/p reduction is done in gmp.Int
		// since B^2 mod p^2 can exceed a uint64 for large factor
		// bases.
		amodp := s.Amodp[j]
		twoBAprime := modarith.MulModWord(2*bModP%p, amodp, p)
		u1 := modarith.ModInverseWord(twoBAprime, p)

		bsq := new(gmp.Int).Mul(bDivP2Big, bDivP2Big)
		bsq.Mod(bsq, p2Big)
		diffBig := new(gmp.Int).Sub(bsq, D)
		diffBig.Mod(diffBig, p2Big)
		diffBig.Quo(diffBig, new(gmp.Int).SetUint64(p)) // exact: p | (B^2 - kN) whenever p | A
		diff := new(gmp.Int).Mod(diffBig, new(gmp.Int).SetUint64(p)).Uint64()

		val := modarith.MulModWord(diff, u1, p)
		x := (p - val%p) % p
		soln1 := modarith.AddModWord(x, mdiv2%p, p)
		s.Soln1[idx] = soln1
		s.Soln2[idx] = SentinelSoln2
	}
}

func lowestSetBit(x int) int {
	if x == 0 {
		return 0
	}
	j := 0
	for x&1 == 0 {
		x >>= 1
		j++
	}
	return j
}
