package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForClampsBelowMinimum(t *testing.T) {
	low := For(10)
	exact := For(MinDigits)
	assert.Equal(t, exact.NumPrimes, low.NumPrimes)
	assert.Equal(t, exact.LargePrime, low.LargePrime)
}

func TestForSwitchesToFallbackPastTableCeiling(t *testing.T) {
	at91 := For(91)        // last tabled row
	beyondTable := For(95) // past the table: the fallback row applies
	assert.Equal(t, 80000, at91.NumPrimes)
	assert.Equal(t, 64000, beyondTable.NumPrimes)
}

func TestForUsesFallbackBeyond91(t *testing.T) {
	tbl := For(120)
	assert.Equal(t, 64000, tbl.NumPrimes)
	assert.EqualValues(t, 192000, tbl.Mdiv2)
	assert.EqualValues(t, 32, tbl.ErrorBits)
	assert.EqualValues(t, 127, tbl.Threshold)
	assert.EqualValues(t, uint64(64000)*10*120, tbl.LargePrime)
}

func TestRelSoughtIsNumPrimesPlus64(t *testing.T) {
	for _, d := range []int{40, 55, 80, 91, 150} {
		tbl := For(d)
		assert.Equal(t, tbl.NumPrimes+64, tbl.RelSought)
	}
}

func TestMdiv2NeverBelowHalfCacheBlock(t *testing.T) {
	for d := MinDigits; d <= 91; d++ {
		tbl := For(d)
		assert.GreaterOrEqual(t, tbl.Mdiv2*2, uint64(CacheBlockSize))
	}
}

func TestSecondAndMidPrimeCapped(t *testing.T) {
	tbl := For(78) // numPrimes=30000, well above both caps
	assert.Equal(t, SecondPrimeCap, tbl.SecondPrime)
	assert.Equal(t, MidPrimeCap, tbl.MidPrime)

	tiny := For(40) // numPrimes=1500, below both caps
	assert.Equal(t, tiny.NumPrimes, tiny.SecondPrime)
	assert.Equal(t, tiny.NumPrimes, tiny.MidPrime)
}
