package qsieve

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/ncw/gmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relprime/simpqs/internal/matrix"
	"github.com/relprime/simpqs/internal/poly"
	"github.com/relprime/simpqs/internal/relstore"
	"github.com/relprime/simpqs/internal/sieve"
	"github.com/relprime/simpqs/internal/tmpfile"
)

// driverState names the relation collector's state machine (spec.md
// §4.9: "ACCUMULATING -> FLUSHING (periodic merge) -> ACCUMULATING; ->
// SOLVING when count reached; -> DONE"). Partials buffer in memory while
// ACCUMULATING; a batch is sorted, merged against the on-disk carry
// stream and combined while FLUSHING (spec.md §4.7 steps 1-5); SOLVING
// covers matrix assembly and GF(2) elimination; DONE is reached once a
// nontrivial factor has been extracted.
type driverState int

const (
	accumulating driverState = iota
	flushing
	solving
	done
)

func (s driverState) String() string {
	switch s {
	case accumulating:
		return "ACCUMULATING"
	case flushing:
		return "FLUSHING"
	case solving:
		return "SOLVING"
	case done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

var driverSeq uint64

// Driver sequences polynomial generation, sieving, evaluation,
// large-prime combining and matrix solving until enough relations
// have accumulated (component C9).
type Driver struct {
	ctx *SieveContext

	state driverState

	fullBase  string // tmpfile base name backing the full-relation stream
	fullFile  *os.File
	closeFull func() error
	fullCount int

	pending []string // buffered partial relation lines since the last flush

	carryBase string // tmpfile base name for the sorted, not-yet-combined partial singles
	haveCarry bool

	flushCutoff int
	nextCutoff  int
}

// NewDriver builds a Driver from a fresh SieveContext, opening its
// on-disk full-relation stream via internal/tmpfile (spec.md §5: scoped
// acquisition of each FILE, guaranteed close on every exit path).
// Callers must call Close when done.
func NewDriver(ctx *SieveContext) (*Driver, error) {
	base := ctx.Table.RelSought / 40
	if base < 1 {
		base = 1
	}
	if ctx.Cfg.RelFlushBase > 0 {
		base = ctx.Cfg.RelFlushBase
	}

	id := atomic.AddUint64(&driverSeq, 1)
	fullBase := fmt.Sprintf("simpqs-relations-%d", id)
	carryBase := fmt.Sprintf("simpqs-partial-carry-%d", id)

	f, closeFn, err := tmpfile.Scoped(fullBase, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, errors.Wrap(err, "qsieve: open relation stream")
	}

	return &Driver{
		ctx:         ctx,
		fullBase:    fullBase,
		fullFile:    f,
		closeFull:   closeFn,
		carryBase:   carryBase,
		flushCutoff: base,
		nextCutoff:  base,
	}, nil
}

// FullRelationsPath returns the on-disk path of the accumulated full
// relation stream, for tools such as cmd/relstat to inspect after a run
// (SUPPLEMENTED FEATURES #4).
func (d *Driver) FullRelationsPath() string {
	return tmpfile.Name(d.fullBase)
}

// Close releases the driver's scratch files: the full-relation stream
// is closed but left on disk for relstat to inspect, and the partial
// carry stream, being purely intermediate, is closed and removed.
func (d *Driver) Close() error {
	err := d.closeFull()
	if d.haveCarry {
		if rmErr := tmpfile.Remove(d.carryBase); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Factor runs the full pipeline for ctx.N and returns nontrivial
// divisors (spec.md §4.9). Divisors from the null space are taken as
// gcd(y-x, N) against ctx.N itself rather than kN; a divisor surfaced
// by large-prime combining is gcd(q, kN) and is returned as found.
func (d *Driver) Factor() ([]*gmp.Int, error) {
	gen := poly.NewGenerator(d.ctx.FB, d.ctx.KN, d.ctx.Table.Mdiv2, d.ctx.Cfg.Seed)
	eng := sieve.New(d.ctx.Table, d.ctx.FB.Primes, d.ctx.FB.Sizes)

	relSought := d.ctx.Table.RelSought
	relStep := relSought/10 + 1

	for {
		for d.fullCount < relSought {
			st := gen.NextA()
			for {
				eng.Reset(st)
				eng.Sieve(st)
				ev := sieve.NewEvaluator(eng, d.ctx.Table.Threshold, d.ctx.Table.ErrorBits, d.ctx.Table.LargePrime, d.ctx.FB.Primes, d.ctx.FB.Sizes)

				for _, c := range ev.Scan() {
					res := ev.Evaluate(st, c)
					if err := d.recordResult(res); err != nil {
						if f, ok := asFactor(err); ok {
							return []*gmp.Int{f}, nil
						}
						return nil, err
					}
				}

				if d.fullCount >= relSought {
					break
				}
				if !st.NextSibling() {
					break
				}
			}
		}

		if err := d.flush(); err != nil {
			if f, ok := asFactor(err); ok {
				return []*gmp.Int{f}, nil
			}
			return nil, err
		}

		factors, err := d.solve()
		if err != nil {
			return nil, err
		}
		if len(factors) > 0 {
			d.state = done
			logrus.WithField("state", d.state).Info("qsieve: factor extraction complete")
			return factors, nil
		}

		d.state = accumulating
		logrus.WithField("relations", d.fullCount).Warn(
			"qsieve: null space yielded no nontrivial factor, gathering more relations")
		relSought += relStep
	}
}

func asFactor(err error) (*gmp.Int, bool) {
	var factErr *relstore.Factor
	if errors.As(err, &factErr) {
		return factErr.Value, true
	}
	return nil, false
}

// recordResult appends a full relation straight to the on-disk stream,
// or buffers a partial in memory for the next flush (spec.md §9: "an
// in-memory container of pending partial relations, flushed to disk on
// a cutoff" is permitted for the ACCUMULATING state).
func (d *Driver) recordResult(res sieve.Result) error {
	switch res.Class {
	case sieve.Full:
		rel := &relstore.Relation{X: res.X, Exponents: res.Exponents}
		if _, err := d.fullFile.WriteString(rel.Format() + "\n"); err != nil {
			return errors.Wrap(err, "qsieve: write full relation")
		}
		d.fullCount++

		if d.fullCount >= d.nextCutoff {
			logrus.WithFields(logrus.Fields{
				"found": d.fullCount,
			}).Info("qsieve: relation count crossed flush cutoff")
			d.nextCutoff += d.flushCutoff
		}
	case sieve.Partial:
		rel := &relstore.Relation{LargePrime: res.LargePrime, X: res.X, Exponents: res.Exponents}
		d.pending = append(d.pending, rel.Format())
		if len(d.pending) >= d.flushCutoff {
			return d.flush()
		}
	}
	return nil
}

// flush runs the ACCUMULATING->FLUSHING->ACCUMULATING transition
// (spec.md §4.9): the pending partial batch is sorted and deduplicated
// (spec.md §4.7 step 1), merged against the on-disk carry stream of
// previously unmatched partials (step 2), and every run sharing a large
// prime beyond its first member is combined into a synthesised full
// relation appended to the full-relation stream (steps 3-5). Runs that
// stay singleton become the new carry stream.
func (d *Driver) flush() error {
	if len(d.pending) == 0 {
		return nil
	}
	d.state = flushing
	defer func() { d.state = accumulating }()

	batch := strings.Join(d.pending, "\n") + "\n"
	d.pending = d.pending[:0]

	var sorted strings.Builder
	if err := relstore.SortLPFile(strings.NewReader(batch), &sorted); err != nil {
		return errors.Wrap(err, "qsieve: sort partial batch")
	}

	oldCarry := strings.NewReader("")
	var closeCarry func() error
	if d.haveCarry {
		f, closeFn, err := tmpfile.Scoped(d.carryBase, os.O_RDONLY)
		if err != nil {
			return errors.Wrap(err, "qsieve: open partial carry stream")
		}
		defer func() {
			if closeCarry != nil {
				closeCarry()
			}
		}()
		closeCarry = closeFn
		buf := new(strings.Builder)
		if _, err := io.Copy(buf, f); err != nil {
			return errors.Wrap(err, "qsieve: read partial carry stream")
		}
		oldCarry = strings.NewReader(buf.String())
	}

	var singles, grouped strings.Builder
	if err := relstore.MergeGroups(oldCarry, strings.NewReader(sorted.String()), &singles, &grouped); err != nil {
		return errors.Wrap(err, "qsieve: merge partial batch")
	}

	if grouped.Len() > 0 {
		var combined strings.Builder
		if err := relstore.Combine(d.ctx.KN, strings.NewReader(grouped.String()), &combined); err != nil {
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(combined.String(), "\n"), "\n") {
			if line == "" {
				continue
			}
			if _, err := d.fullFile.WriteString(line + "\n"); err != nil {
				return errors.Wrap(err, "qsieve: write combined relation")
			}
			d.fullCount++
		}
		logrus.WithField("relations", d.fullCount).Debug("qsieve: flush combined matching partials")
	}

	cf, closeFn, err := tmpfile.Scoped(d.carryBase, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return errors.Wrap(err, "qsieve: open partial carry stream for write")
	}
	_, writeErr := cf.WriteString(singles.String())
	closeErr := closeFn()
	if writeErr != nil {
		return errors.Wrap(writeErr, "qsieve: write partial carry stream")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "qsieve: close partial carry stream")
	}
	d.haveCarry = true

	return nil
}

// solve reopens the accumulated full-relation stream, assembles it into
// a GF(2) matrix and looks for a dependency yielding a nontrivial
// factor. It may legitimately find none (an all-trivial null space, or
// no dependency at all); the caller is responsible for gathering more
// relations and calling solve again, since the elimination itself is
// deterministic and gains nothing from being repeated on the same
// input.
func (d *Driver) solve() ([]*gmp.Int, error) {
	d.state = solving
	logrus.WithField("state", d.state).Debug("qsieve: assembling matrix")

	f, closeFn, err := tmpfile.Scoped(d.fullBase, os.O_RDONLY)
	if err != nil {
		return nil, errors.Wrap(err, "qsieve: reopen relation stream")
	}
	defer closeFn()

	assembly, err := matrix.Read(d.ctx.KN, d.ctx.FB.Primes, d.fullCount, f)
	if err != nil {
		return nil, errors.Wrap(err, "qsieve: assemble matrix")
	}
	assembly.DropSingletons()

	cols := matrix.Solve(assembly)
	if cols == nil {
		return nil, nil
	}
	factors := matrix.ExtractFactors(assembly, d.ctx.FB.Primes, cols, d.ctx.N)
	if len(factors) == 0 {
		return nil, nil
	}
	return dedupeFactors(factors), nil
}

func dedupeFactors(fs []*gmp.Int) []*gmp.Int {
	var out []*gmp.Int
	for _, f := range fs {
		dup := false
		for _, o := range out {
			if o.Cmp(f) == 0 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}
