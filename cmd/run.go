package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
	"github.com/spf13/cobra"
)

var (
	problemName   string
	popSize       int
	generations   int
	survivalRate  float64
	crossoverRate float64
	mutationRate  float64
	seed          int64
	workers       int
	seedGenomes   []string
	progressEvery int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a problem to completion",
	Long: `Runs one evolution of the chosen problem and prints the best
solution found. Use "minsearch run --problem list" to see the available
problems.`,
	RunE: runProblem,
}

func init() {
	runCmd.Flags().StringVar(&problemName, "problem", "", "Problem to solve (required, or \"list\")")
	runCmd.Flags().IntVar(&popSize, "pop", 0, "Population size (0 = problem default)")
	runCmd.Flags().IntVar(&generations, "generations", 0, "Max generations (0 = problem default)")
	runCmd.Flags().Float64Var(&survivalRate, "survival", 0, "Survival rate in (0,1) (0 = problem default)")
	runCmd.Flags().Float64Var(&crossoverRate, "crossover", 0, "Crossover rate in (0,1) (0 = problem default)")
	runCmd.Flags().Float64Var(&mutationRate, "mutation", 0, "Mutation rate in (0,1) (0 = problem default)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time-seeded)")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Worker goroutines (>1 enables the parallel engine)")
	runCmd.Flags().StringArrayVar(&seedGenomes, "seed-genome", nil, "Genome to seed the first generation with (repeatable)")
	runCmd.Flags().IntVar(&progressEvery, "progress-every", 25, "Log progress every N generations (0 = quiet)")

	runCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(runCmd)
}

func runProblem(cmd *cobra.Command, args []string) error {
	if problemName == "list" {
		for _, name := range problems.Names() {
			p, err := problems.Get(name)
			if err != nil {
				continue
			}
			fmt.Printf("%-16s %s\n", p.Name(), p.Description())
		}
		return nil
	}

	problem, err := problems.Get(problemName)
	if err != nil {
		return err
	}

	params := problems.RunParams{
		PopulationSize:  popSize,
		MaxGenerations:  generations,
		SurvivalRate:    survivalRate,
		CrossoverRate:   crossoverRate,
		MutationRate:    mutationRate,
		Seed:            seed,
		Workers:         workers,
		FirstGeneration: seedGenomes,
	}

	slog.Info("Starting run", "problem", problemName, "seed", seed, "workers", workers)

	var onProgress func(problems.Progress)
	if progressEvery > 0 {
		onProgress = func(p problems.Progress) {
			if p.Generation%progressEvery == 0 {
				slog.Info("Progress",
					"generation", p.Generation,
					"best_score", p.BestScore,
					"mean_score", p.MeanScore,
					"evaluations", p.Evaluations,
				)
			}
		}
	}

	start := time.Now()
	result, err := problem.Run(cmd.Context(), params, onProgress)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	slog.Info("Run complete",
		"problem", result.Problem,
		"elapsed", elapsed,
		"generations", result.Generations,
		"evaluations", result.Evaluations,
		"best_score", result.BestScore,
	)

	fmt.Printf("Best solution (score %.6f after %d generations, %d evaluations):\n%s\n",
		result.BestScore, result.Generations, result.Evaluations, result.Best)

	return nil
}
