package modarith

import (
	"math/rand"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModInverseWord(t *testing.T) {
	primes := []uint64{3, 5, 7, 11, 101, 65537, 4294967291}
	rng := rand.New(rand.NewSource(1))
	for _, p := range primes {
		for i := 0; i < 20; i++ {
			a := rng.Uint64()%(p-1) + 1
			inv := ModInverseWord(a, p)
			assert.EqualValues(t, 1, MulModWord(a, inv, p), "p=%d a=%d", p, a)
		}
	}
}

func TestSqrtIsRootWhenResidue(t *testing.T) {
	primes := []int64{3, 5, 7, 11, 13, 101, 10007}
	rng := rand.New(rand.NewSource(2))
	for _, pv := range primes {
		p := gmp.NewInt(pv)
		for i := 0; i < 30; i++ {
			base := gmp.NewInt(int64(rng.Intn(int(pv))) + 1)
			a := new(gmp.Int).Mul(base, base)
			a.Mod(a, p)
			if a.Sign() == 0 {
				continue
			}
			root, ok := Sqrt(a, p)
			require.True(t, ok, "expected %v to be a residue mod %v", a, p)
			check := new(gmp.Int).Mul(root, root)
			check.Mod(check, p)
			assert.Zero(t, check.Cmp(a), "root^2 != a mod p for a=%v p=%v", a, p)
		}
	}
}

func TestSqrtRejectsNonResidue(t *testing.T) {
	p := gmp.NewInt(7)
	// Quadratic residues mod 7 are {1,2,4}; 3 is not.
	_, ok := Sqrt(gmp.NewInt(3), p)
	assert.False(t, ok)
}

func TestJacobiMatchesQuadraticResidues(t *testing.T) {
	p := gmp.NewInt(11)
	residues := map[int64]bool{}
	for x := int64(1); x < 11; x++ {
		sq := (x * x) % 11
		residues[sq] = true
	}
	for a := int64(1); a < 11; a++ {
		want := -1
		if residues[a] {
			want = 1
		}
		got := Jacobi(gmp.NewInt(a), p)
		assert.Equal(t, want, got, "Jacobi(%d,11)", a)
	}
}

func TestSqrtModPrimePowerLiftsCorrectly(t *testing.T) {
	p := gmp.NewInt(5)
	a := gmp.NewInt(6) // 6 mod 5 = 1, a perfect residue
	root, ok := Sqrt(new(gmp.Int).Mod(a, p), p)
	require.True(t, ok)

	lifted := SqrtModPrimePower(root, a, p, 3) // mod 125
	pk := gmp.NewInt(125)
	check := new(gmp.Int).Mul(lifted, lifted)
	check.Mod(check, pk)
	expected := new(gmp.Int).Mod(a, pk)
	assert.Zero(t, check.Cmp(expected))
}
