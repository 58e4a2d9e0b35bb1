package relstore

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// line is a raw relation-stream line paired with its sort key, so
// sorting never has to reparse the whole relation.
type line struct {
	key uint64
	raw string
}

// SortLPFile reads every line from r, sorts it by leading large-prime
// key (or 0 for full relations with no "@"), ordering lines that share a
// key lexicographically, drops exact duplicate
// lines, and writes the result to w (spec.md §4.7 step 1, §8 "sort_lp_file
// idempotence").
func SortLPFile(r io.Reader, w io.Writer) error {
	lines, err := readLines(r)
	if err != nil {
		return err
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].key != lines[j].key {
			return lines[i].key < lines[j].key
		}
		return lines[i].raw < lines[j].raw
	})

	bw := bufio.NewWriter(w)
	var prev string
	first := true
	for _, l := range lines {
		if !first && l.raw == prev {
			continue
		}
		first = false
		prev = l.raw
		if _, err := bw.WriteString(l.raw + "\n"); err != nil {
			return errors.Wrap(err, "relstore: write sorted line")
		}
	}
	return bw.Flush()
}

func readLines(r io.Reader) ([]line, error) {
	var out []line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		raw := sc.Text()
		if raw == "" {
			continue
		}
		out = append(out, line{key: sortKey(raw), raw: raw})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "relstore: read lines")
	}
	return out, nil
}

func sortKey(raw string) uint64 {
	if i := strings.Index(raw, "@"); i >= 0 {
		q, err := strconv.ParseUint(strings.TrimSpace(raw[:i]), 10, 64)
		if err == nil {
			return q
		}
	}
	return 0
}

// MergeGroups reads two sorted inputs (old, incoming) and groups lines
// by key: singleton keys are written to singles, keys present more than
// once are written to grouped in full, and each such group's first line
// is also written to singles (spec.md §4.7 step 2/3: "groups sharing q
// are routed to a combination stream"). Both inputs are read into
// memory and the concatenation is stable-sorted by key, so old lines
// precede incoming lines within a key.
func MergeGroups(old, incoming io.Reader, singles, grouped io.Writer) error {
	oldLines, err := readLines(old)
	if err != nil {
		return err
	}
	newLines, err := readLines(incoming)
	if err != nil {
		return err
	}

	merged := make([]line, 0, len(oldLines)+len(newLines))
	merged = append(merged, oldLines...)
	merged = append(merged, newLines...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].key < merged[j].key })

	sbw := bufio.NewWriter(singles)
	gbw := bufio.NewWriter(grouped)

	i := 0
	for i < len(merged) {
		j := i + 1
		for j < len(merged) && merged[j].key == merged[i].key {
			j++
		}
		group := merged[i:j]
		if len(group) == 1 {
			if _, err := sbw.WriteString(group[0].raw + "\n"); err != nil {
				return errors.Wrap(err, "relstore: write single")
			}
		} else {
			// The retained copy in lprels is the first occurrence
			// (spec.md §4.7 step 2); the whole group, first line
			// included, goes to the combination stream so Combine
			// can pair the later lines against it.
			if _, err := sbw.WriteString(group[0].raw + "\n"); err != nil {
				return errors.Wrap(err, "relstore: write group head")
			}
			for _, l := range group {
				if _, err := gbw.WriteString(l.raw + "\n"); err != nil {
					return errors.Wrap(err, "relstore: write group member")
				}
			}
		}
		i = j
	}

	if err := sbw.Flush(); err != nil {
		return err
	}
	return gbw.Flush()
}
