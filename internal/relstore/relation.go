// Package relstore implements the relation store and large-prime
// combiner (component C7): the on-disk text streams of full and
// partial relations, sorted merging keyed by large prime, and
// synthesis of combined full relations from matching partial pairs.
// Ported from original_source/src/lprels.cpp.
package relstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ncw/gmp"
	"github.com/pkg/errors"
)

// Relation is one parsed line from a full, partial or combined
// relation stream (spec.md §3 "Relations").
type Relation struct {
	LargePrime uint64 // 0 for full relations
	X          *gmp.Int
	Exponents  map[int]int // factor-base index -> exponent
}

// Format renders r in the on-disk text format (spec.md §6).
func (r *Relation) Format() string {
	var b strings.Builder
	if r.LargePrime != 0 {
		fmt.Fprintf(&b, "%d @ ", r.LargePrime)
	}
	fmt.Fprintf(&b, "%s :", r.X.String())
	for _, idx := range sortedKeys(r.Exponents) {
		fmt.Fprintf(&b, " %d %d", r.Exponents[idx], idx)
	}
	b.WriteString(" 0")
	return b.String()
}

// Parse reads one relation line, full or partial, in the format
// produced by Format.
func Parse(line string) (*Relation, error) {
	r := &Relation{Exponents: make(map[int]int)}

	rest := line
	if i := strings.Index(rest, "@"); i >= 0 {
		q, err := strconv.ParseUint(strings.TrimSpace(rest[:i]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "relstore: parse large prime %q", rest[:i])
		}
		r.LargePrime = q
		rest = rest[i+1:]
	}

	colon := strings.Index(rest, ":")
	if colon < 0 {
		return nil, errors.Errorf("relstore: missing ':' in line %q", line)
	}
	xStr := strings.TrimSpace(rest[:colon])
	x, ok := new(gmp.Int).SetString(xStr, 10)
	if !ok {
		return nil, errors.Errorf("relstore: bad X value %q", xStr)
	}
	r.X = x

	fields := strings.Fields(rest[colon+1:])
	for i := 0; i+1 < len(fields); i += 2 {
		e, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, errors.Wrapf(err, "relstore: bad exponent %q", fields[i])
		}
		if e == 0 {
			break
		}
		p, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "relstore: bad prime index %q", fields[i+1])
		}
		r.Exponents[p] += e
	}
	return r, nil
}

// Verify checks the smoothness invariant X^2 = prod(p_i^e_i) (mod kN)
// for a full relation, or X^2 = q * prod(p_i^e_i) (mod kN) for a partial
// one (the large prime appears to the first power, matching what
// Combine's Y1*Y2*q^-1 cancellation assumes), discarding the relation
// on mismatch (spec.md §3 invariants, §7 error kind 3). Q(x) is negative
// for roughly half the sieve interval, so the recorded exponents
// (of A*|Q|) satisfy X^2 = -prod(p_i^e_i) (mod kN) just as often as the
// positive case; both signs are accepted, mirroring
// original_source/src/lprels.cpp's read_matrix, which takes a relation
// when prod == X^2 or prod + X^2 == n. Generalised from the teacher's
// Collision self-check in common.go, which re-derives a modulus from
// two factorisations and compares rather than trusting either blindly.
func (r *Relation) Verify(kn *gmp.Int, primes []uint64) bool {
	lhs := new(gmp.Int).Mul(r.X, r.X)
	lhs.Mod(lhs, kn)

	rhs := gmp.NewInt(1)
	for idx, e := range r.Exponents {
		if e <= 0 {
			return false
		}
		if idx < 0 || idx >= len(primes) {
			return false
		}
		p := new(gmp.Int).SetUint64(primes[idx])
		pe := new(gmp.Int).Exp(p, gmp.NewInt(int64(e)), kn)
		rhs.Mul(rhs, pe)
		rhs.Mod(rhs, kn)
	}
	if r.LargePrime != 0 {
		q := new(gmp.Int).SetUint64(r.LargePrime)
		rhs.Mul(rhs, q)
		rhs.Mod(rhs, kn)
	}

	if lhs.Cmp(rhs) == 0 {
		return true
	}
	sum := new(gmp.Int).Add(lhs, rhs)
	sum.Mod(sum, kn)
	return sum.Sign() == 0
}

func sortedKeys(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
