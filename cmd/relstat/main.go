// Command relstat inspects a relation stream file — such as the one
// left behind at the path cmd/simpqs prints on exit
// (qsieve.Driver.FullRelationsPath) — and reports counts of full,
// partial and duplicate-large-prime relations. Adapted from
// _examples/therealmik-batchgcd/crttomoduli/main.go's "read and
// summarize" shape, with the x509/PEM certificate parsing dropped
// since nothing in this domain consumes certificates; the file-reading
// and per-line reporting idiom is what's kept.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/relprime/simpqs/internal/relstore"
)

func main() {
	root := &cobra.Command{
		Use:   "relstat <relation-file>",
		Short: "Summarize a relation stream file",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var full, partial, malformed int
	seenQ := make(map[uint64]int)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		rel, err := relstore.Parse(line)
		if err != nil {
			malformed++
			continue
		}
		if rel.LargePrime == 0 {
			full++
		} else {
			partial++
			seenQ[rel.LargePrime]++
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	dupes := 0
	for _, n := range seenQ {
		if n > 1 {
			dupes++
		}
	}

	fmt.Printf("full: %d\n", full)
	fmt.Printf("partial: %d\n", partial)
	fmt.Printf("distinct large primes seen more than once: %d\n", dupes)
	fmt.Printf("malformed lines: %d\n", malformed)
	return nil
}
