// Package sieve implements the segmented logarithmic sieve (component
// C5): three prime-size regimes writing approximate log2-contributions
// into a byte accumulator over [-M/2, M/2), cache-blocked to keep the
// hot cursors resident. Ported from original_source/src/QS.cpp's
// sieveInterval/sieve2.
package sieve

import (
	"github.com/relprime/simpqs/internal/params"
	"github.com/relprime/simpqs/internal/poly"
)

// Sentinel is the byte value written one past the accumulator's usable
// length, at Accum[m] (spec.md §4.5, §9). Evaluator.Scan bounds its
// loops by m and does not read it.
const Sentinel = 255

// Engine holds the reusable accumulator, per-block cursors and flag
// bits for one factor base across an entire run.
type Engine struct {
	primes []uint64
	sizes  []uint8

	firstPrime  int
	mediumPrime int
	midPrime    int
	secondPrime int
	numPrimes   int

	m     int // full interval length, 2*Mdiv2
	mdiv2 uint64

	Accum []byte // length m+1, Accum[m] == Sentinel
	Flags []byte // length (numPrimes-secondPrime)*((m+7)/8), one bit per position per flagged prime

	offsets  []uint64 // regime 1-2 cursor for soln1, indexed by prime index
	offsets2 []uint64 // regime 1-2 cursor for soln2
}

// New allocates an Engine sized for the given tuning table and factor
// base (spec.md §5 "heap arrays ... owned by the driver, allocated
// before sieving, freed after solve").
func New(t params.Table, primes []uint64, sizes []uint8) *Engine {
	m := int(t.Mdiv2 * 2)
	e := &Engine{
		primes:      primes,
		sizes:       sizes,
		firstPrime:  t.FirstPrime,
		mediumPrime: params.MediumPrime,
		midPrime:    t.MidPrime,
		secondPrime: t.SecondPrime,
		numPrimes:   t.NumPrimes,
		m:           m,
		mdiv2:       t.Mdiv2,
		Accum:       make([]byte, m+1),
		offsets:     make([]uint64, t.NumPrimes),
		offsets2:    make([]uint64, t.NumPrimes),
	}
	e.Accum[m] = Sentinel

	flagBytes := (m + 7) / 8
	if t.NumPrimes > t.SecondPrime {
		e.Flags = make([]byte, (t.NumPrimes-t.SecondPrime)*flagBytes)
	}
	return e
}

// M returns the sieve interval's length.
func (e *Engine) M() int { return e.m }

// Reset clears the accumulator and cursors to soln1/soln2 for a new
// sibling polynomial (spec.md §4.5: "On each sibling ... soln1/soln2
// are advanced ... the cached cursors carry the per-block
// continuation" — for a brand-new A, cursors reset to the fresh
// soln1/soln2 rather than being advanced).
func (e *Engine) Reset(st *poly.State) {
	for i := range e.Accum[:e.m] {
		e.Accum[i] = 0
	}
	for i := 0; i < e.numPrimes && i < e.firstPrime; i++ {
		e.offsets[i] = 0
		e.offsets2[i] = 0
	}
	for i := e.firstPrime; i < e.numPrimes; i++ {
		e.offsets[i] = st.Soln1[i]
		e.offsets2[i] = st.Soln2[i]
	}
	if e.Flags != nil {
		for i := range e.Flags {
			e.Flags[i] = 0
		}
	}
}

// Sieve runs a full pass over the interval for the current sibling,
// writing log-contributions into Accum and, for flagged primes, into
// Flags.
func (e *Engine) Sieve(st *poly.State) {
	blockSize := params.CacheBlockSize
	if blockSize > e.m {
		blockSize = e.m
	}

	e.sieveSecondAndFlagged(st)

	for blockStart := 0; blockStart < e.m; blockStart += blockSize {
		blockEnd := blockStart + blockSize
		if blockEnd > e.m {
			blockEnd = e.m
		}
		e.sieveSmall(blockStart, blockEnd)
		e.sieveMedium(blockStart, blockEnd)
	}
}

// sieveSmall handles [firstPrime, mediumPrime) (spec.md §4.5 regime 1)
// with the plain stride of stridePrime; no unrolling is done.
func (e *Engine) sieveSmall(blockStart, blockEnd int) {
	hi := e.mediumPrime
	if hi > e.numPrimes {
		hi = e.numPrimes
	}
	for i := e.firstPrime; i < hi; i++ {
		e.stridePrime(i, blockStart, blockEnd, 4)
	}
}

// sieveMedium handles [mediumPrime, midPrime) (spec.md §4.5 regime 2)
// with the plain stride of stridePrime; no unrolling is done.
func (e *Engine) sieveMedium(blockStart, blockEnd int) {
	lo := e.mediumPrime
	hi := e.midPrime
	if lo < e.firstPrime {
		lo = e.firstPrime
	}
	if hi > e.numPrimes {
		hi = e.numPrimes
	}
	for i := lo; i < hi; i++ {
		e.stridePrime(i, blockStart, blockEnd, 2)
	}
}

// stridePrime advances the two cursors for prime i across
// [blockStart, blockEnd), writing sizes[i] at each hit. unroll only
// affects how many hits are written per loop iteration conceptually;
// Go's compiler handles the actual unrolling, so this stays a single
// straightforward stride (the regime split still matters for which
// primes participate, matching spec.md's three-way boundary).
func (e *Engine) stridePrime(i, blockStart, blockEnd, unroll int) {
	_ = unroll
	p := e.primes[i]
	sz := e.sizes[i]

	pos := e.offsets[i]
	for int(pos) < blockEnd {
		if int(pos) >= blockStart {
			e.Accum[pos] += sz
		}
		pos += p
	}
	e.offsets[i] = pos

	if e.offsets2[i] == poly.SentinelSoln2 {
		return
	}
	pos2 := e.offsets2[i]
	for int(pos2) < blockEnd {
		if int(pos2) >= blockStart {
			e.Accum[pos2] += sz
		}
		pos2 += p
	}
	e.offsets2[i] = pos2
}

// sieveSecondAndFlagged runs regimes 3 and 4 once per sibling over the
// whole interval (spec.md §4.5: "run once per sibling over the whole
// interval before blocking begins").
func (e *Engine) sieveSecondAndFlagged(st *poly.State) {
	flagBytes := (e.m + 7) / 8

	for i := e.midPrime; i < e.secondPrime; i++ {
		e.strideWhole(i, st)
	}

	for i := e.secondPrime; i < e.numPrimes; i++ {
		p := e.primes[i]
		sz := e.sizes[i]
		row := e.Flags[(i-e.secondPrime)*flagBytes : (i-e.secondPrime+1)*flagBytes]

		for pos := st.Soln1[i]; int(pos) < e.m; pos += p {
			e.Accum[pos] += sz
			row[pos/8] |= 1 << (pos & 7)
		}
		if st.Soln2[i] == poly.SentinelSoln2 {
			continue
		}
		for pos := st.Soln2[i]; int(pos) < e.m; pos += p {
			e.Accum[pos] += sz
			row[pos/8] |= 1 << (pos & 7)
		}
	}
}

func (e *Engine) strideWhole(i int, st *poly.State) {
	p := e.primes[i]
	sz := e.sizes[i]
	for pos := st.Soln1[i]; int(pos) < e.m; pos += p {
		e.Accum[pos] += sz
	}
	if st.Soln2[i] == poly.SentinelSoln2 {
		return
	}
	for pos := st.Soln2[i]; int(pos) < e.m; pos += p {
		e.Accum[pos] += sz
	}
}

// FlagSet reports whether prime index i (>= secondPrime) was recorded
// as a hit at accumulator position pos.
func (e *Engine) FlagSet(i, pos int) bool {
	flagBytes := (e.m + 7) / 8
	row := e.Flags[(i-e.secondPrime)*flagBytes : (i-e.secondPrime+1)*flagBytes]
	return row[pos/8]&(1<<uint(pos&7)) != 0
}
