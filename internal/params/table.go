// Package params holds the decimal-digit-indexed tuning table (component
// C1): factor-base size, sieve half-width, large-prime bound, first
// sieved prime, log-error slack and smoothness threshold. Ported
// verbatim from original_source/src/QS.cpp's numPrimes/sieveSize/
// largeprimes/firstPrimes/errorAmounts/thresholds tables, including the
// fallback formulas used above 91 decimal digits.
package params

const (
	// MinDigits is the smallest decimal-digit count this sieve will
	// attempt to factor (spec.md §1 Non-goals).
	MinDigits = 40
	maxTabled = 91

	// CacheBlockSize is the sieve's cache-blocking granularity; must
	// stay comfortably inside L1/L2 (spec.md §4.5, §5).
	CacheBlockSize = 64000
	// MediumPrime is the factor-base index boundary between the
	// small-prime and medium-prime sieve regimes.
	MediumPrime = 900
	// SecondPrimeCap upper-bounds SecondPrime; large-prime-cutoff
	// entries beyond this always use flag bits instead of soln
	// comparisons.
	SecondPrimeCap = 6000
	// MidPrimeCap upper-bounds MidPrime.
	MidPrimeCap = 1500
	// FudgeFactor corrects the rounding of prime bit-lengths (spec §4.3).
	FudgeFactor = 0.15
)

// Table is one row of the tuning table, fully resolved for a specific N.
type Table struct {
	DecDigits    int
	NumPrimes    int
	Mdiv2        uint64
	LargePrime   uint64
	FirstPrime   int
	ErrorBits    uint8
	Threshold    uint8
	SecondPrime  int
	MidPrime     int
	RelSought    int
}

var largePrimes = []uint64{
	250000, 300000, 370000, 440000, 510000, 580000, 650000, 720000, 790000, 8600000, // 40-49
	930000, 1000000, 1700000, 2400000, 3100000, 3800000, 4500000, 5200000, 5900000, 6600000, // 50-59
	7300000, 8000000, 8900000, 10000000, 11300000, 12800000, 14500000, 16300000, 18100000, 20000000, // 60-69
	22000000, 24000000, 27000000, 32000000, 39000000, // 70-74
	53000000, 65000000, 75000000, 87000000, 100000000, // 75-79
	114000000, 130000000, 150000000, 172000000, 195000000, // 80-84
	220000000, 250000000, 300000000, 350000000, 400000000, // 85-89
	450000000, 500000000, // 90-91
}

var numPrimesTable = []int{
	1500, 1500, 1600, 1700, 1750, 1800, 1900, 2000, 2050, 2100, // 40-49
	2150, 2200, 2250, 2300, 2400, 2500, 2600, 2700, 2800, 2900, // 50-59
	3000, 3150, 5500, 6000, 6500, 7000, 7500, 8000, 8500, 9000, // 60-69
	9500, 10000, 11500, 13000, 15000, // 70-74
	17000, 24000, 27000, 30000, 37000, // 75-79
	45000, 47000, 53000, 57000, 58000, // 80-84
	59000, 60000, 64000, 68000, 72000, // 85-89
	76000, 80000, // 90-91
}

var firstPrimesTable = []int{
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, // 40-49
	9, 8, 9, 9, 9, 9, 10, 10, 10, 10, // 50-59
	10, 10, 11, 11, 12, 12, 13, 14, 15, 17, // 60-69
	19, 21, 22, 22, 23, // 70-74
	24, 25, 25, 26, 26, // 75-79
	27, 27, 27, 27, 28, // 80-84
	28, 28, 28, 29, 29, // 85-89
	29, 29, // 90-91
}

var errorAmountsTable = []uint8{
	16, 17, 17, 18, 18, 19, 19, 19, 20, 20, // 40-49
	21, 21, 21, 22, 22, 22, 23, 23, 23, 24, // 50-59
	24, 24, 25, 25, 25, 25, 26, 26, 26, 26, // 60-69
	27, 27, 28, 28, 29, // 70-74
	29, 30, 30, 30, 31, // 75-79
	31, 31, 31, 32, 32, // 80-84
	32, 32, 32, 33, 33, // 85-89
	33, 33, // 90-91
}

var thresholdsTable = []uint8{
	66, 67, 67, 68, 68, 68, 69, 69, 69, 69, // 40-49
	70, 70, 70, 71, 71, 71, 72, 72, 73, 73, // 50-59
	74, 74, 75, 75, 76, 76, 77, 77, 78, 79, // 60-69
	80, 81, 82, 83, 84, // 70-74
	85, 86, 87, 88, 89, // 75-79
	91, 92, 93, 93, 94, // 80-84
	95, 96, 97, 98, 100, // 85-89
	101, 102, // 90-91
}

var sieveSizeTable = []uint64{
	32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, // 40-49
	32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, // 50-59
	32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, 32000, // 60-69
	32000, 32000, 64000, 64000, 64000, // 70-74
	96000, 96000, 96000, 128000, 128000, // 75-79
	160000, 160000, 160000, 160000, 160000, // 80-84
	192000, 192000, 192000, 192000, 192000, // 85-89
	192000, 192000, // 90-91
}

func clampIndex(decDigits int) int {
	idx := decDigits - MinDigits
	if idx < 0 {
		idx = 0
	}
	if idx > maxTabled-MinDigits {
		idx = maxTabled - MinDigits
	}
	return idx
}

// For resolves the tuning table for a composite of the given decimal
// digit count. Callers must have already rejected decDigits < MinDigits
// (spec.md §1/§7 error kind 1).
func For(decDigits int) Table {
	if decDigits > maxTabled {
		return fallback(decDigits)
	}

	idx := clampIndex(decDigits)
	t := Table{
		DecDigits:   decDigits,
		NumPrimes:   numPrimesTable[idx],
		Mdiv2:       sieveSizeTable[idx],
		LargePrime:  largePrimes[idx],
		FirstPrime:  firstPrimesTable[idx],
		ErrorBits:   errorAmountsTable[idx],
		Threshold:   thresholdsTable[idx],
	}
	if t.Mdiv2*2 < CacheBlockSize {
		t.Mdiv2 = CacheBlockSize / 2
	}
	t.SecondPrime = minInt(t.NumPrimes, SecondPrimeCap)
	t.MidPrime = minInt(t.NumPrimes, MidPrimeCap)
	t.RelSought = t.NumPrimes + 64
	return t
}

// fallback implements the "all bets are off" branch of QS.cpp's main for
// decdigits > 91 (spec.md §4.1: "For decdigits > 91, fixed fallback
// values").
func fallback(decDigits int) Table {
	numPrimes := 64000
	t := Table{
		DecDigits:   decDigits,
		NumPrimes:   numPrimes,
		Mdiv2:       192000,
		LargePrime:  uint64(numPrimes) * 10 * uint64(decDigits),
		FirstPrime:  30,
		ErrorBits:   uint8(decDigits/4 + 2),
		Threshold:   uint8(43 + (7*decDigits)/10),
		SecondPrime: minInt(numPrimes, SecondPrimeCap),
		MidPrime:    minInt(numPrimes, MidPrimeCap),
	}
	t.RelSought = t.NumPrimes + 64
	return t
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
