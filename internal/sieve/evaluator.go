package sieve

import (
	"github.com/ncw/gmp"

	"github.com/relprime/simpqs/internal/poly"
)

// wordMask picks out bits 6 and 7 of every byte in a machine word, a coarse
// pre-filter for words containing a byte >= 64 (spec.md §4.6). Every
// tuned Threshold (params.Table) is >= 64, so this stays a safe superset
// of the real per-byte Threshold comparison in Scan.
const wordMask = 0xC0C0C0C0C0C0C0C0

// Candidate is one accumulator position whose byte cleared the
// threshold, ready for trial division.
type Candidate struct {
	Pos int // index into the accumulator, in [0, M)
	X   int64
}

// Classification is the outcome of trial-dividing one candidate.
type Classification int

const (
	// Reject means the residue after trial division still exceeds
	// the large-prime bound.
	Reject Classification = iota
	// Full means the residue reached 1 (or fell to <=1000 in the
	// teacher's original looseness; here exactly full smoothness).
	Full
	// Partial means the residue is a single prime in (1000,
	// largeprime).
	Partial
)

// Result is one trial-division outcome, ready for the relation store.
type Result struct {
	Class      Classification
	X          *gmp.Int // A*x + B
	Q          *gmp.Int // signed Q(x), before abs
	Exponents  map[int]int
	LargePrime uint64
}

// Evaluator scans an Engine's accumulator for candidates and
// trial-divides them against the factor base (component C6).
type Evaluator struct {
	e          *Engine
	threshold  uint8
	errorBits  uint8
	largePrime uint64
	primes     []uint64
	sizes      []uint8
}

// NewEvaluator builds an Evaluator bound to one Engine's accumulator
// and factor base.
func NewEvaluator(e *Engine, threshold, errorBits uint8, largePrime uint64, primes []uint64, sizes []uint8) *Evaluator {
	return &Evaluator{e: e, threshold: threshold, errorBits: errorBits, largePrime: largePrime, primes: primes, sizes: sizes}
}

// Scan returns every accumulator position whose byte clears the tuned
// Threshold (params.Table), scanning in machine-word chunks and falling
// back to a byte scan within any word that matched (spec.md §4.6).
func (ev *Evaluator) Scan() []Candidate {
	accum := ev.e.Accum
	m := ev.e.m
	mdiv2 := int64(ev.e.mdiv2)

	var out []Candidate
	i := 0
	for ; i+8 <= m; i += 8 {
		var word uint64
		for b := 0; b < 8; b++ {
			word |= uint64(accum[i+b]) << (8 * b)
		}
		if word&wordMask == 0 {
			continue
		}
		for b := 0; b < 8; b++ {
			if accum[i+b] >= ev.threshold {
				pos := i + b
				out = append(out, Candidate{Pos: pos, X: int64(pos) - mdiv2})
			}
		}
	}
	for ; i < m; i++ {
		if accum[i] >= ev.threshold {
			out = append(out, Candidate{Pos: i, X: int64(i) - mdiv2})
		}
	}
	return out
}

// Evaluate trial-divides one candidate's Q(x) against the factor base
// and classifies the residue (spec.md §4.6).
func (ev *Evaluator) Evaluate(st *poly.State, c Candidate) Result {
	x := gmp.NewInt(c.X)
	X := new(gmp.Int).Mul(st.A, x)
	X.Add(X, st.B)

	q := new(gmp.Int).Mul(st.A, x)
	q.Mul(q, x)
	twoBx := new(gmp.Int).Mul(st.B, x)
	twoBx.Mul(twoBx, gmp.NewInt(2))
	q.Add(q, twoBx)
	q.Add(q, st.C)

	res := ev.trialDivide(st, c, X, q)
	if res.Class == Reject && q.Sign() > 0 {
		// spec.md §9 open question: a rejected positive Q is retried
		// once as -Q, and only a non-reject retry result is kept, so
		// at most one relation is emitted. trialDivide works on |Q|,
		// so the retry sees the same residue.
		negQ := new(gmp.Int).Neg(q)
		alt := ev.trialDivide(st, c, X, negQ)
		if alt.Class != Reject {
			return alt
		}
	}
	return res
}

func (ev *Evaluator) trialDivide(st *poly.State, c Candidate, X, q *gmp.Int) Result {
	residue := new(gmp.Int).Abs(q)
	exponents := make(map[int]int)

	// bits is the evidence budget the accumulated log-contributions
	// must clear before the remaining tiers are worth trial-dividing at
	// all: the residue's own bit length, minus the tuned ErrorBits slack
	// (spec.md §4.1 ErrorBits; original_source/src/QS.cpp's
	// `bits = sizeinbase(res,2) - errorbits`).
	bits := residue.BitLen() - int(ev.errorBits)
	if bits < 0 {
		bits = 0
	}

	tryDivide := func(idx int) {
		p := new(gmp.Int).SetUint64(ev.primes[idx])
		for residue.Sign() != 0 {
			m := new(gmp.Int).Mod(residue, p)
			if m.Sign() != 0 {
				return
			}
			residue.Quo(residue, p)
			exponents[idx]++
		}
	}

	extra := 0
	before := exponents[0]
	tryDivide(0)
	if exponents[0] > before {
		extra += int(ev.sizes[0])
	}
	if len(ev.primes) > 1 {
		before = exponents[1]
		tryDivide(1)
		if exponents[1] > before {
			extra += int(ev.sizes[1])
		}
	}

	budget := int(ev.e.Accum[c.Pos]) + extra
	if budget >= bits {
		for i := 2; i < len(ev.primes) && extra < budget; i++ {
			if !ev.shouldTry(st, c, i) {
				continue
			}
			before := exponents[i]
			tryDivide(i)
			if exponents[i] > before {
				extra += int(ev.sizes[i])
			}
		}
	}

	if residue.Sign() == 0 {
		return Result{Class: Reject, X: X, Q: q, Exponents: exponents}
	}
	if residue.Cmp(gmp.NewInt(1)) == 0 {
		for _, idx := range st.Aind {
			exponents[idx]++
		}
		return Result{Class: Full, X: X, Q: q, Exponents: exponents}
	}
	if residue.Cmp(gmp.NewInt(1000)) <= 0 {
		return Result{Class: Reject, X: X, Q: q, Exponents: exponents}
	}
	if residue.Cmp(new(gmp.Int).SetUint64(ev.largePrime)) < 0 {
		for _, idx := range st.Aind {
			exponents[idx]++
		}
		return Result{Class: Partial, X: X, Q: q, Exponents: exponents, LargePrime: residue.Uint64()}
	}
	return Result{Class: Reject, X: X, Q: q, Exponents: exponents}
}

// shouldTry reports whether factor-base prime i is a plausible divisor
// of Q at this candidate position, per the three trial-division tiers
// of spec.md §4.6.
func (ev *Evaluator) shouldTry(st *poly.State, c Candidate, i int) bool {
	switch {
	case i < len(st.Soln1) && i < ev.e.firstPrime:
		return true
	case i < ev.e.secondPrime:
		return positionMatches(c.Pos, ev.primes[i], st.Soln1[i], st.Soln2[i])
	default:
		if !ev.e.FlagSet(i, c.Pos) {
			return false
		}
		return positionMatches(c.Pos, ev.primes[i], st.Soln1[i], st.Soln2[i])
	}
}

func positionMatches(pos int, p, soln1, soln2 uint64) bool {
	m := uint64(pos) % p
	if m == soln1%p {
		return true
	}
	if soln2 == poly.SentinelSoln2 {
		return false
	}
	return m == soln2%p
}

