package relstore

import (
	"bufio"
	"io"

	"github.com/ncw/gmp"
	"github.com/pkg/errors"
)

// Factor is returned by Combine when a large-prime run's non-invertible
// q incidentally reveals a nontrivial factor of N (spec.md §4.7 step 4,
// §7 error kind 4a).
type Factor struct {
	Value *gmp.Int
}

func (f *Factor) Error() string { return "relstore: factor found during combination: " + f.Value.String() }

// Combine reads a grouped stream (runs of relations sharing a leading
// large prime), and for every run beyond the first entry emits a
// synthesised full relation to out (spec.md §4.7 step 4). It pairs
// only the run's later entries against the first, per the design note
// preserving the teacher's original throughput/memory trade-off
// (spec.md §9).
//
// Combine returns a *Factor error (use errors.As) if a non-invertible
// q happens to reveal gcd(q,N) as a nontrivial divisor.
func Combine(n *gmp.Int, grouped io.Reader, out io.Writer) error {
	lines, err := readLines(grouped)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(out)
	i := 0
	for i < len(lines) {
		j := i + 1
		for j < len(lines) && lines[j].key == lines[i].key {
			j++
		}
		if err := combineRun(n, lines[i:j], bw); err != nil {
			return err
		}
		i = j
	}
	return bw.Flush()
}

func combineRun(n *gmp.Int, run []line, bw *bufio.Writer) error {
	if len(run) < 2 {
		return nil
	}
	q := run[0].key

	qInt := new(gmp.Int).SetUint64(q)
	g := new(gmp.Int).GCD(nil, nil, qInt, n)
	if g.Cmp(gmp.NewInt(1)) != 0 {
		if g.Cmp(n) == 0 {
			return nil // gcd == N: discard the run and continue (spec.md §7 error kind 4b)
		}
		return &Factor{Value: g}
	}
	inv := new(gmp.Int).ModInverse(qInt, n)

	first, err := Parse(run[0].raw)
	if err != nil {
		return errors.Wrap(err, "relstore: parse run head")
	}

	for _, l := range run[1:] {
		other, err := Parse(l.raw)
		if err != nil {
			return errors.Wrap(err, "relstore: parse run member")
		}

		combined := &Relation{Exponents: make(map[int]int, len(first.Exponents)+len(other.Exponents))}
		x := new(gmp.Int).Mul(first.X, other.X)
		x.Mul(x, inv)
		x.Mod(x, n)
		combined.X = x

		for idx, e := range first.Exponents {
			combined.Exponents[idx] += e
		}
		for idx, e := range other.Exponents {
			combined.Exponents[idx] += e
		}

		if _, err := bw.WriteString(combined.Format() + "\n"); err != nil {
			return errors.Wrap(err, "relstore: write combined relation")
		}
	}
	return nil
}
