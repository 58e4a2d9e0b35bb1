package modarith

import "github.com/ncw/gmp"

// Jacobi computes the Jacobi symbol (a/n) for odd positive n, using the
// same reciprocity-law reduction the Tonelli-Shanks and multiplier
// selection routines in original_source rely on via GMP's mpz_kronecker.
// gmp.Int does not expose a Jacobi/Kronecker helper directly, so this
// reimplements the classical algorithm on top of Mod/Bit primitives.
func Jacobi(a, n *gmp.Int) int {
	if n.Sign() <= 0 || n.Bit(0) == 0 {
		panic("modarith: Jacobi requires an odd positive modulus")
	}

	x := new(gmp.Int).Mod(a, n)
	m := new(gmp.Int).Set(n)
	result := 1

	for x.Sign() != 0 {
		for x.Bit(0) == 0 {
			x.Rsh(x, 1)
			r := new(gmp.Int).Mod(m, gmp.NewInt(8))
			rv := r.Int64()
			if rv == 3 || rv == 5 {
				result = -result
			}
		}
		x, m = m, x
		if new(gmp.Int).Mod(x, gmp.NewInt(4)).Int64() == 3 &&
			new(gmp.Int).Mod(m, gmp.NewInt(4)).Int64() == 3 {
			result = -result
		}
		x.Mod(x, m)
	}

	if m.Cmp(one) == 0 {
		return result
	}
	return 0
}

// JacobiWord is the machine-word specialisation used by the multiplier
// selector's per-candidate scoring loop, where both the candidate
// multiplier and the scanned prime already fit a machine word.
func JacobiWord(a int64, p uint64) int {
	return Jacobi(gmp.NewInt(a), gmp.NewInt(0).SetUint64(p))
}
