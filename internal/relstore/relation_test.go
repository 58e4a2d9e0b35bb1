package relstore

import (
	"strings"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	r := &Relation{
		X:         gmp.NewInt(12345),
		Exponents: map[int]int{0: 1, 3: 2, 7: 1},
	}
	line := r.Format()
	got, err := Parse(line)
	require.NoError(t, err)
	assert.Zero(t, r.X.Cmp(got.X))
	assert.Equal(t, r.Exponents, got.Exponents)
}

func TestFormatParseRoundTripPartial(t *testing.T) {
	r := &Relation{
		LargePrime: 987654321,
		X:          gmp.NewInt(-555),
		Exponents:  map[int]int{2: 1},
	}
	got, err := Parse(r.Format())
	require.NoError(t, err)
	assert.EqualValues(t, r.LargePrime, got.LargePrime)
	assert.Zero(t, r.X.Cmp(got.X))
}

func TestVerifyAcceptsConsistentRelation(t *testing.T) {
	knVal := int64(10403) // 101 * 103, small enough to brute-force a root
	kn := gmp.NewInt(knVal)
	primes := []uint64{3, 2, 5}

	target := int64(3 * 2 * 5) // exponents below: p index 0 (3), index 1 (2) and index 2 (5)
	var x int64 = -1
	for cand := int64(0); cand < knVal; cand++ {
		if (cand*cand)%knVal == target%knVal {
			x = cand
			break
		}
	}
	require.GreaterOrEqual(t, x, int64(0), "no square root found for fixture")

	r := &Relation{X: gmp.NewInt(x), Exponents: map[int]int{0: 1, 1: 1, 2: 1}}
	assert.True(t, r.Verify(kn, primes))
}

func TestVerifyAcceptsConsistentPartialRelation(t *testing.T) {
	knVal := int64(10403) // 101 * 103
	kn := gmp.NewInt(knVal)
	primes := []uint64{3, 2, 5}

	const q = 11
	target := int64(q * 2 * 5) // q^1 * 2^1 * 5^1, not q^2
	var x int64 = -1
	for cand := int64(0); cand < knVal; cand++ {
		if (cand*cand)%knVal == target%knVal {
			x = cand
			break
		}
	}
	require.GreaterOrEqual(t, x, int64(0), "no square root found for fixture")

	r := &Relation{LargePrime: q, X: gmp.NewInt(x), Exponents: map[int]int{1: 1, 2: 1}}
	assert.True(t, r.Verify(kn, primes))
}

func TestVerifyAcceptsRelationWithNegativeQ(t *testing.T) {
	// Q(x) is negative for roughly half the sieve interval, so a full
	// relation's exponents can just as well satisfy X^2 = -prod(p^e)
	// (mod kN) as the positive case; Verify must accept both.
	knVal := int64(10403) // 101 * 103
	kn := gmp.NewInt(knVal)
	primes := []uint64{3, 2, 5}

	prod := int64(5) // exponents below: index 2 (5)
	target := ((-prod)%knVal + knVal) % knVal
	var x int64 = -1
	for cand := int64(0); cand < knVal; cand++ {
		if (cand*cand)%knVal == target {
			x = cand
			break
		}
	}
	require.GreaterOrEqual(t, x, int64(0), "no square root found for fixture")

	r := &Relation{X: gmp.NewInt(x), Exponents: map[int]int{2: 1}}
	assert.True(t, r.Verify(kn, primes))
}

func TestVerifyRejectsInconsistentRelation(t *testing.T) {
	kn := gmp.NewInt(10007 * 3)
	primes := []uint64{3, 2, 5}
	r := &Relation{X: gmp.NewInt(2), Exponents: map[int]int{2: 1}}
	assert.False(t, r.Verify(kn, primes))
}

func TestSortLPFileIsIdempotentAndDropsDuplicates(t *testing.T) {
	in := "5 @ 1 : 1 0 0\n3 @ 2 : 1 0 0\n3 @ 2 : 1 0 0\n"
	var once, twice strings.Builder
	require.NoError(t, SortLPFile(strings.NewReader(in), &once))
	require.NoError(t, SortLPFile(strings.NewReader(once.String()), &twice))
	assert.Equal(t, once.String(), twice.String())

	lines := strings.Split(strings.TrimRight(once.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}
