// Package matrix implements GF(2) matrix assembly and solving
// (component C8): reading relations into exponent-parity columns,
// handing them to a block-Lanczos-contract collaborator, and
// extracting factors from the resulting null-space dependencies.
// Ported from original_source/src/lprels.cpp's read_matrix and
// original_source/src/F2matrix.cpp's row-reduction shape.
package matrix

import (
	"bufio"
	"io"

	"github.com/ncw/gmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relprime/simpqs/internal/relstore"
)

// bitset is a fixed-width GF(2) row vector, one bit per factor-base
// prime, wide enough for the tens of thousands of primes a large
// factor base carries.
type bitset []uint64

func newBitset(numBits int) bitset {
	return make(bitset, (numBits+63)/64)
}

func (b bitset) set(i int)          { b[i/64] |= 1 << uint(i%64) }
func (b bitset) get(i int) bool     { return b[i/64]&(1<<uint(i%64)) != 0 }
func (b bitset) xorInto(other bitset) {
	for i := range b {
		b[i] ^= other[i]
	}
}
func (b bitset) isZero() bool {
	for _, w := range b {
		if w != 0 {
			return false
		}
	}
	return true
}
func (b bitset) lowestSetBit() int {
	for i, w := range b {
		if w != 0 {
			return i*64 + trailingZeros64(w)
		}
	}
	return -1
}

func trailingZeros64(w uint64) int {
	n := 0
	for w&1 == 0 {
		w >>= 1
		n++
	}
	return n
}

// Column is one accepted relation's exponent-parity bitset plus the X
// value needed to reconstruct the square-root product later.
type Column struct {
	X   *gmp.Int
	Row bitset
	Exp map[int]int
}

// Assembly holds every accepted relation's column, ready for the
// solver.
type Assembly struct {
	Columns   []Column
	NumPrimes int
}

// Read parses every line from streams, discards relations that fail
// the smoothness self-check, and stops once relSought valid columns
// are collected (spec.md §4.8).
func Read(kn *gmp.Int, primes []uint64, relSought int, streams ...io.Reader) (*Assembly, error) {
	a := &Assembly{NumPrimes: len(primes)}

	for _, r := range streams {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() && len(a.Columns) < relSought {
			line := sc.Text()
			if line == "" {
				continue
			}
			rel, err := relstore.Parse(line)
			if err != nil {
				return nil, errors.Wrap(err, "matrix: parse relation")
			}
			if !rel.Verify(kn, primes) {
				logrus.WithField("x", rel.X.String()).Debug("matrix: discarding relation failing smoothness check")
				continue
			}
			a.Columns = append(a.Columns, columnFrom(rel, a.NumPrimes))
		}
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(err, "matrix: read relation stream")
		}
		if len(a.Columns) >= relSought {
			break
		}
	}
	return a, nil
}

func columnFrom(rel *relstore.Relation, numPrimes int) Column {
	row := newBitset(numPrimes)
	for idx, e := range rel.Exponents {
		if e%2 != 0 && idx < numPrimes {
			row.set(idx)
		}
	}
	return Column{X: rel.X, Row: row, Exp: rel.Exponents}
}

// DropSingletons removes rows (prime indices) that appear an odd
// number of times in exactly one column, since such a row can never
// participate in a dependency (spec.md §4.8 "Reduce (drop singleton
// rows)").
func (a *Assembly) DropSingletons() {
	counts := make(map[int]int)
	for _, c := range a.Columns {
		for idx, e := range c.Exp {
			if e%2 != 0 {
				counts[idx]++
			}
		}
	}
	drop := make([]int, 0)
	for idx, n := range counts {
		if n == 1 {
			drop = append(drop, idx)
		}
	}
	if len(drop) == 0 {
		return
	}
	for i := range a.Columns {
		for _, idx := range drop {
			if idx < a.NumPrimes && a.Columns[i].Row.get(idx) {
				a.Columns[i].Row[idx/64] &^= 1 << uint(idx%64)
			}
		}
	}
}
