package relstore

import (
	"strings"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineEmitsOneRelationPerExtraRunMember(t *testing.T) {
	n := gmp.NewInt(10403) // 101 * 103, q=7 is invertible mod n
	grouped := "7 @ 11 : 1 0 0\n7 @ 13 : 1 1 0\n7 @ 17 : 1 2 0\n"

	var out strings.Builder
	err := Combine(n, strings.NewReader(grouped), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 2)

	for _, l := range lines {
		got, err := Parse(l)
		require.NoError(t, err)
		assert.Zero(t, got.LargePrime)
	}
}

func TestCombineSkipsSingletonRuns(t *testing.T) {
	n := gmp.NewInt(10403)
	grouped := "7 @ 11 : 1 0 0\n"
	var out strings.Builder
	require.NoError(t, Combine(n, strings.NewReader(grouped), &out))
	assert.Empty(t, out.String())
}

func TestCombineReportsFactorWhenGCDIsNontrivial(t *testing.T) {
	n := gmp.NewInt(35) // 5*7
	grouped := "5 @ 1 : 1 0 0\n5 @ 2 : 1 1 0\n"

	var out strings.Builder
	err := Combine(n, strings.NewReader(grouped), &out)
	require.Error(t, err)

	var factErr *Factor
	require.ErrorAs(t, err, &factErr)
	assert.NotZero(t, factErr.Value.Sign())
}
