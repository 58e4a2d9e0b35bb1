// Command simpqs reads a composite decimal integer from standard input
// and prints its nontrivial factors, per original_source/src/QS.cpp's
// mainRoutine CLI loop (spec.md §6 "External Interfaces").
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ncw/gmp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relprime/simpqs/internal/params"
	"github.com/relprime/simpqs/internal/qsieve"
)

var (
	seed uint64
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "simpqs",
		Short: "Self-initialising multiple-polynomial quadratic sieve factoring engine",
		RunE:  runFactor,
	}
	root.Flags().Uint64Var(&seed, "seed", 0, "polynomial RNG seed (0 selects the deterministic default)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("simpqs: fatal")
		os.Exit(1)
	}
}

func runFactor(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	fmt.Print("Input number to factor [ >=40 decimal digits]: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("simpqs: read input: %w", err)
	}
	line = strings.TrimSpace(line)

	n, ok := new(gmp.Int).SetString(line, 10)
	if !ok || n.Sign() <= 0 {
		return fmt.Errorf("simpqs: %q is not a positive decimal integer", line)
	}
	if len(n.String()) < params.MinDigits {
		return fmt.Errorf("simpqs: input has fewer than %d decimal digits", params.MinDigits)
	}

	ctx := qsieve.NewSieveContext(n, qsieve.Config{Seed: seed})
	logrus.WithFields(logrus.Fields{
		"multiplier": ctx.K,
		"numPrimes":  ctx.Table.NumPrimes,
		"relSought":  ctx.Table.RelSought,
	}).Info("simpqs: starting sieve")

	driver, err := qsieve.NewDriver(ctx)
	if err != nil {
		return fmt.Errorf("simpqs: %w", err)
	}
	defer driver.Close()

	factors, err := driver.Factor()
	if err != nil {
		return fmt.Errorf("simpqs: %w", err)
	}

	fmt.Println("FACTORS:")
	for _, f := range factors {
		fmt.Println(f.String())
	}
	fmt.Printf("Relation stream written to %s\n", driver.FullRelationsPath())

	fmt.Print("Press Enter to exit...")
	reader.ReadString('\n')
	return nil
}
