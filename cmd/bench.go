package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/minsearch/internal/opt"
	"github.com/spf13/cobra"
)

var (
	benchIters int
	benchPop   int
	benchSeed  int64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the continuous optimizers on Rosenbrock",
	Long: `Runs the mayfly, pattern search and simulated annealing optimizers
against the 2-D Rosenbrock function on [-2, 2]^2 and reports the cost each
one reaches and how long it takes. The global minimum is 0 at (1, 1).`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchIters, "iters", 500, "Iteration budget for mayfly and annealing")
	benchCmd.Flags().IntVar(&benchPop, "pop", 30, "Mayfly population size")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "Random seed")
	rootCmd.AddCommand(benchCmd)
}

func rosenbrock2D(x []float64) float64 {
	a := x[1] - x[0]*x[0]
	b := 1 - x[0]
	return 100*a*a + b*b
}

func runBench(cmd *cobra.Command, args []string) error {
	const dim = 2
	lower := []float64{-2, -2}
	upper := []float64{2, 2}

	optimizers := []struct {
		name string
		opt  opt.Optimizer
	}{
		{"mayfly", opt.NewMayfly(benchIters, benchPop, benchSeed)},
		{"patternsearch", opt.NewPatternSearch(1e-10, 1)},
		{"annealing", opt.NewAnnealing(benchIters*benchPop, benchSeed)},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTIMIZER\tBEST COST\tX\tY\tELAPSED")
	fmt.Fprintln(w, "---------\t---------\t-\t-\t-------")

	for _, entry := range optimizers {
		start := time.Now()
		params, cost := entry.opt.Run(rosenbrock2D, lower, upper, dim)
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%.6g\t%.4f\t%.4f\t%s\n",
			entry.name, cost, params[0], params[1], elapsed.Round(time.Millisecond))
	}

	return w.Flush()
}
