package factorbase

import (
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStartsWithMultiplierThenTwo(t *testing.T) {
	kn := gmp.NewInt(10007 * 3)
	b := Build(kn, 3, 10)
	require.GreaterOrEqual(t, len(b.Primes), 2)
	assert.EqualValues(t, 3, b.Primes[0])
	assert.EqualValues(t, 2, b.Primes[1])
}

func TestBuildSkipsTwoWhenMultiplierIsTwo(t *testing.T) {
	kn := gmp.NewInt(10007 * 2)
	b := Build(kn, 2, 10)
	assert.EqualValues(t, 2, b.Primes[0])
	assert.NotEqualValues(t, 2, b.Primes[1])
}

func TestBuildOnlyKeepsQuadraticResidues(t *testing.T) {
	kn := gmp.NewInt(10007 * 3)
	b := Build(kn, 3, 12)
	for i := 2; i < len(b.Primes); i++ {
		p := gmp.NewInt(int64(b.Primes[i]))
		root := b.Sqrts[i]
		require.NotNil(t, root)
		check := new(gmp.Int).Mul(root, root)
		check.Mod(check, p)
		expected := new(gmp.Int).Mod(kn, p)
		assert.Zero(t, check.Cmp(expected), "prime %d", b.Primes[i])
	}
}

func TestBuildRequestsExactCount(t *testing.T) {
	kn := gmp.NewInt(123456789)
	b := Build(kn, 1, 25)
	assert.Len(t, b.Primes, 25)
	assert.Len(t, b.Sizes, 25)
	assert.Len(t, b.Sqrts, 25)
}
