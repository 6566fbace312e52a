package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
	"github.com/cwbudde/minsearch/internal/store"
	gocache "github.com/patrickmn/go-cache"
)

// runJob executes an evolution job in the background.
//
// If checkpointStore is not nil and the job has a checkpoint interval,
// periodic checkpoints and a generation trace are written. If results is
// not nil, completed deterministic runs are memoized and later jobs with
// the same problem and parameters are answered from the cache.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, results *gocache.Cache, jobID string) error {
	defer jm.ReleaseCancel(jobID)

	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	problem, err := problems.Get(job.Problem)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	key, cacheable := resultKey(job.Problem, job.Params)
	if results != nil && cacheable {
		if cached, ok := results.Get(key); ok {
			resultCacheHits.Inc()
			completeJob(jm, jobID, cached.(*problems.Result), time.Since(job.StartTime))
			slog.Info("Job answered from result cache", "job_id", jobID, "problem", job.Problem)
			return nil
		}
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	jobsStarted.WithLabelValues(job.Problem).Inc()
	runningJobs.Inc()
	defer runningJobs.Dec()

	slog.Info("Starting job", "job_id", jobID, "problem", job.Problem,
		"population", job.Params.PopulationSize, "generations", job.Params.MaxGenerations)

	var trace *store.TraceWriter
	if checkpointStore != nil && job.CheckpointInterval > 0 {
		if dirs, ok := checkpointStore.(interface{ BaseDir() string }); ok {
			trace, err = store.NewTraceWriter(dirs.BaseDir(), jobID, false)
			if err != nil {
				slog.Warn("Failed to open trace writer", "job_id", jobID, "error", err)
			} else {
				defer trace.Close()
			}
		}
	}

	start := time.Now()
	lastCheckpoint := start
	onProgress := func(p problems.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Generation = p.Generation
			j.Best = p.Best
			j.BestScore = p.BestScore
			j.Evaluations = p.Evaluations
		})
		generationsTotal.WithLabelValues(job.Problem).Inc()

		elapsed := time.Since(start).Seconds()
		var gps float64
		if elapsed > 0 {
			gps = float64(p.Generation) / elapsed
		}
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:       jobID,
			State:       StateRunning,
			Generation:  p.Generation,
			BestScore:   p.BestScore,
			Evaluations: p.Evaluations,
			GenPerSec:   gps,
			Timestamp:   time.Now(),
		})

		if trace != nil {
			entry := store.TraceEntry{
				Generation:  p.Generation,
				BestScore:   p.BestScore,
				Evaluations: p.Evaluations,
				MeanScore:   p.MeanScore,
				ScoreStdDev: p.ScoreStdDev,
				Timestamp:   time.Now(),
			}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		if checkpointStore != nil && job.CheckpointInterval > 0 &&
			time.Since(lastCheckpoint) >= time.Duration(job.CheckpointInterval)*time.Second {
			lastCheckpoint = time.Now()
			checkpoint := store.NewCheckpoint(jobID, job.Problem, job.Params, p)
			if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			} else {
				slog.Info("Checkpoint saved", "job_id", jobID,
					"generation", p.Generation, "best_score", p.BestScore)
			}
			if trace != nil {
				trace.Flush()
			}
		}
	}

	result, err := problem.Run(ctx, job.Params, onProgress)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}
	if ctx.Err() != nil {
		markJobCancelled(jm, jobID)
		return ctx.Err()
	}

	completeJob(jm, jobID, result, elapsed)

	if checkpointStore != nil && job.CheckpointInterval > 0 {
		final := store.NewCheckpoint(jobID, job.Problem, job.Params, problems.Progress{
			Generation:  result.Generations,
			Best:        result.Best,
			BestScore:   result.BestScore,
			Evaluations: result.Evaluations,
		})
		if err := checkpointStore.SaveCheckpoint(jobID, final); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	if results != nil && cacheable {
		results.Set(key, result, gocache.DefaultExpiration)
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"generations", result.Generations,
		"best_score", result.BestScore,
		"evaluations", result.Evaluations,
	)
	return nil
}

// completeJob records a terminal successful state and broadcasts it.
func completeJob(jm *JobManager, jobID string, result *problems.Result, elapsed time.Duration) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Generation = result.Generations
		j.Best = result.Best
		j.BestScore = result.BestScore
		j.Evaluations = result.Evaluations
		j.EndTime = &endTime
	})
	jobsFinished.WithLabelValues(result.Problem, string(StateCompleted)).Inc()

	var gps float64
	if elapsed.Seconds() > 0 {
		gps = float64(result.Generations) / elapsed.Seconds()
	}
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Generation:  result.Generations,
		BestScore:   result.BestScore,
		Evaluations: result.Evaluations,
		GenPerSec:   gps,
		Timestamp:   time.Now(),
	})
}

// markJobFailed records a terminal failed state.
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	var problem string
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
		problem = j.Problem
	})
	jobsFinished.WithLabelValues(problem, string(StateFailed)).Inc()
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled records a terminal cancelled state.
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	var problem string
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
		problem = j.Problem
	})
	jobsFinished.WithLabelValues(problem, string(StateCancelled)).Inc()
	slog.Info("Job cancelled", "job_id", jobID)
}
