// Package qsieve wires the parameter table, multiplier selection,
// factor base, polynomial generator, sieve, evaluator, relation store
// and matrix solver into the end-to-end factoring driver (component
// C9). SieveContext bundles the global state original_source/src/QS.cpp
// keeps as file-scope globals into a single value threaded explicitly
// through the call tree (spec.md §9 Design Notes).
package qsieve

import (
	"github.com/ncw/gmp"

	"github.com/relprime/simpqs/internal/factorbase"
	"github.com/relprime/simpqs/internal/multiplier"
	"github.com/relprime/simpqs/internal/params"
)

// Config holds the driver's tunables (component C1/C9), the ambient
// config surface described in this repository's design notes: a plain
// struct rather than a config file, populated from CLI flags.
type Config struct {
	Seed      uint64 // 0 selects the deterministic default seed
	RelFlushBase int  // overrides relSought/40 flush cutoff base; 0 uses the default
}

// SieveContext is the single value carrying every piece of state the
// generator, sieve and evaluator need (spec.md §9: "Global statefulness
// ... becomes a single SieveContext value built by the driver").
type SieveContext struct {
	N  *gmp.Int // original input
	K  uint64
	KN *gmp.Int // N * K

	Table params.Table
	FB    *factorbase.Base

	Cfg Config
}

// NewSieveContext runs multiplier selection and factor-base
// construction for N, resolving the tuning table from its decimal
// digit count (spec.md §4.9 driver sequencing, steps "read N, pick k,
// build FB").
func NewSieveContext(n *gmp.Int, cfg Config) *SieveContext {
	decDigits := len(n.String())
	table := params.For(decDigits)

	k, kn := multiplier.Select(n)
	fb := factorbase.Build(kn, k, table.NumPrimes)

	return &SieveContext{
		N:     n,
		K:     k,
		KN:    kn,
		Table: table,
		FB:    fb,
		Cfg:   cfg,
	}
}
