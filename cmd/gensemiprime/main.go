// Command gensemiprime generates random semiprimes N = p*q of a
// requested decimal-digit size, for exercising simpqs against
// known-factorable inputs. Adapted from
// _examples/therealmik-batchgcd/mkmoduli/main.go's random-modulus
// generator; kept concurrent since it sits outside the single-threaded
// sieve core (spec.md §5 binds only the sieve's own components).
package main

import (
	cryptorand "crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"runtime"
	"sync"

	"github.com/spf13/cobra"
)

var (
	count  int
	digits int
)

func main() {
	root := &cobra.Command{
		Use:   "gensemiprime",
		Short: "Generate random semiprimes for exercising simpqs",
		Run:   run,
	}
	root.Flags().IntVar(&count, "count", 1, "how many semiprimes to generate")
	root.Flags().IntVar(&digits, "digits", 50, "approximate decimal digits per semiprime")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) {
	runtime.GOMAXPROCS(runtime.NumCPU())

	numThreads := runtime.NumCPU()
	if numThreads > count {
		numThreads = count
	}
	if numThreads < 1 {
		numThreads = 1
	}
	perThread := (count + numThreads - 1) / numThreads

	var wg sync.WaitGroup
	ch := make(chan *big.Int, numThreads)

	remaining := count
	bitsPerFactor := digits * 3322 / 1000 / 2 // log2(10) ~= 3.322, split across two primes

	for remaining > 0 {
		n := perThread
		if n > remaining {
			n = remaining
		}
		wg.Add(1)
		go genSemiprimes(n, bitsPerFactor, ch, &wg)
		remaining -= n
	}
	go func() {
		wg.Wait()
		close(ch)
	}()
	for n := range ch {
		fmt.Fprintln(os.Stdout, n.String())
	}
}

func genSemiprimes(n, bitsPerFactor int, out chan<- *big.Int, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := 0; i < n; i++ {
		p, err := cryptorand.Prime(cryptorand.Reader, bitsPerFactor)
		if err != nil {
			log.Fatal("gensemiprime: unable to generate random prime: ", err)
		}
		q, err := cryptorand.Prime(cryptorand.Reader, bitsPerFactor)
		if err != nil {
			log.Fatal("gensemiprime: unable to generate random prime: ", err)
		}
		out <- new(big.Int).Mul(p, q)
	}
}
