package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
	"github.com/cwbudde/minsearch/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir     string
	resumeGenerations int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a run from its checkpoint",
	Long: `Resumes an evolution from a saved checkpoint. The new run seeds its
first generation with the checkpointed best genome, so its best score can
only improve on the saved one. The checkpoint is updated when the resumed
run finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeGenerations, "generations", 0, "Max generations for the resumed run (0 = same as original)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint is unusable: %w", err)
	}

	problem, err := problems.Get(checkpoint.Problem)
	if err != nil {
		return err
	}

	params := checkpoint.Params
	if resumeGenerations > 0 {
		params.MaxGenerations = resumeGenerations
	}
	params.FirstGeneration = append([]string{checkpoint.Best}, params.FirstGeneration...)

	if err := checkpoint.IsCompatible(checkpoint.Problem, params); err != nil {
		return err
	}

	slog.Info("Resuming run",
		"job_id", jobID,
		"problem", checkpoint.Problem,
		"from_generation", checkpoint.Generation,
		"checkpoint_best_score", checkpoint.BestScore,
	)

	// The resumed run extends the job's existing trace; generation and
	// evaluation counters continue from where the checkpoint left off.
	trace, err := store.NewTraceWriter(resumeDataDir, jobID, true)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer trace.Close()

	start := time.Now()
	result, err := problem.Run(cmd.Context(), params, func(p problems.Progress) {
		if p.Generation%25 == 0 {
			slog.Info("Progress", "generation", p.Generation, "best_score", p.BestScore)
		}
		if err := trace.Write(store.TraceEntry{
			Generation:  checkpoint.Generation + p.Generation,
			BestScore:   p.BestScore,
			Evaluations: checkpoint.Evaluations + p.Evaluations,
			MeanScore:   p.MeanScore,
			ScoreStdDev: p.ScoreStdDev,
			Timestamp:   time.Now(),
		}); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}
	})
	if err != nil {
		return err
	}

	updated := store.NewCheckpoint(jobID, checkpoint.Problem, checkpoint.Params, problems.Progress{
		Generation:  checkpoint.Generation + result.Generations,
		Best:        result.Best,
		BestScore:   result.BestScore,
		Evaluations: checkpoint.Evaluations + result.Evaluations,
	})
	if err := checkpointStore.SaveCheckpoint(jobID, updated); err != nil {
		return fmt.Errorf("failed to update checkpoint: %w", err)
	}

	slog.Info("Resume complete",
		"elapsed", time.Since(start),
		"generations", result.Generations,
		"best_score", result.BestScore,
	)

	fmt.Printf("Best solution (score %.6f, previously %.6f):\n%s\n",
		result.BestScore, checkpoint.BestScore, result.Best)
	return nil
}
