package matrix

// Solve implements the block-Lanczos collaborator contract of
// spec.md §6 ("block_lanczos(nrows, 0, ncols, cols): return up to 64
// dependencies as a per-column 64-bit mask; may return null") via
// plain Gaussian elimination over GF(2), ported in structure from
// original_source/src/F2matrix.cpp's packed-word row reduction. A
// production block-Lanczos solver is the out-of-scope collaborator
// spec.md §1 names; this fulfils the same contract by direct
// elimination, which is correct for the same input shape though
// asymptotically slower on very wide matrices.
//
// Solve returns nil (the "may return null" branch of the contract) if
// no null-space vector was found, prompting the driver to retry with
// fresh relations.
func Solve(a *Assembly) []uint64 {
	n := len(a.Columns)
	if n == 0 {
		return nil
	}

	rows := make([]bitset, n)
	history := make([]bitset, n)
	for i := range rows {
		rows[i] = append(bitset(nil), a.Columns[i].Row...)
		h := newBitset(n)
		h.set(i)
		history[i] = h
	}

	var deps []bitset

	pivotOf := make(map[int]int) // row-bit -> column index holding the pivot for it
	for col := 0; col < n; col++ {
		row := rows[col]
		if row.isZero() {
			deps = append(deps, history[col])
			continue
		}
		bit := row.lowestSetBit()
		for {
			pivotCol, ok := pivotOf[bit]
			if !ok {
				pivotOf[bit] = col
				break
			}
			row.xorInto(rows[pivotCol])
			history[col].xorInto(history[pivotCol])
			if row.isZero() {
				deps = append(deps, history[col])
				break
			}
			bit = row.lowestSetBit()
		}
	}

	if len(deps) == 0 {
		return nil
	}
	if len(deps) > 64 {
		deps = deps[:64]
	}

	cols := make([]uint64, n)
	for l, dep := range deps {
		for c := 0; c < n; c++ {
			if dep.get(c) {
				cols[c] |= 1 << uint(l)
			}
		}
	}
	return cols
}
