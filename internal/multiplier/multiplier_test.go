package multiplier

import (
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relprime/simpqs/internal/modarith"
)

func TestSelectReturnsAKnownMultiplier(t *testing.T) {
	n, ok := new(gmp.Int).SetString("1000000000000000000000000000000000000067", 10)
	require.True(t, ok)

	k, kn := Select(n)

	found := false
	for _, c := range Candidates {
		if c == k {
			found = true
		}
	}
	assert.True(t, found, "returned multiplier %d not in candidate set", k)

	expected := new(gmp.Int).Mul(n, gmp.NewInt(int64(k)))
	assert.Zero(t, expected.Cmp(kn))
}

func TestSelectedMultiplierMakesKNResidueOverSomeSmallPrimes(t *testing.T) {
	// A weak but meaningful property: kN should be a quadratic residue
	// modulo at least a handful of the smallest odd primes, otherwise
	// the multiplier score would never have favoured it.
	n, ok := new(gmp.Int).SetString("910293840192384019283401928340192834019", 10)
	require.True(t, ok)

	_, kn := Select(n)

	hits := 0
	for _, p := range []int64{3, 5, 7, 11, 13, 17, 19, 23} {
		if modarith.Jacobi(kn, gmp.NewInt(p)) == 1 {
			hits++
		}
	}
	assert.Greater(t, hits, 0)
}
