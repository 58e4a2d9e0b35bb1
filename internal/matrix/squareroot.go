package matrix

import (
	"github.com/ncw/gmp"
)

// ExtractFactors turns the block-Lanczos-contract output into
// candidate factors of n, one per null-space bit (spec.md §4.8): for
// each dependency, y = product of the X values in the dependency, x =
// product of p_j^(e_j/2) over the dependency's summed exponents, and
// gcd(y-x, n) is reported when it lies strictly between 1 and n.
//
// The per-prime exponent totals are accumulated with a single linear
// pass and a direct gcd(y-x, n) call per dependency, rather than the
// product/remainder-tree batch-GCD strategy the teacher uses across
// millions of independent moduli; a null-space dependency here is at
// most relSought columns wide, well short of the scale that tree
// exists to amortise.
func ExtractFactors(a *Assembly, primes []uint64, cols []uint64, n *gmp.Int) []*gmp.Int {
	if cols == nil {
		return nil
	}

	var factors []*gmp.Int
	for l := 0; l < 64; l++ {
		bitMask := uint64(1) << uint(l)
		used := false
		for _, m := range cols {
			if m&bitMask != 0 {
				used = true
				break
			}
		}
		if !used {
			continue
		}

		y := gmp.NewInt(1)
		expTotals := make(map[int]int)
		for i, m := range cols {
			if m&bitMask == 0 {
				continue
			}
			y.Mul(y, a.Columns[i].X)
			y.Mod(y, n)
			for idx, e := range a.Columns[i].Exp {
				expTotals[idx] += e
			}
		}

		x := gmp.NewInt(1)
		for idx, e := range expTotals {
			if e == 0 {
				continue
			}
			p := new(gmp.Int).SetUint64(primes[idx])
			half := gmp.NewInt(int64(e / 2))
			pe := new(gmp.Int).Exp(p, half, n)
			x.Mul(x, pe)
			x.Mod(x, n)
		}

		diff := new(gmp.Int).Sub(y, x)
		g := new(gmp.Int).GCD(nil, nil, new(gmp.Int).Abs(diff), n)
		if g.Sign() > 0 && g.Cmp(n) != 0 && g.Cmp(gmp.NewInt(1)) != 0 {
			factors = append(factors, g)
		}
	}
	return factors
}
