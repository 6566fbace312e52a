package store

import (
	"fmt"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
)

// Checkpoint is a saved snapshot of an evolution run that can be resumed
// later.
//
// The checkpoint saves the best genome found so far, not the whole
// population. Resuming rebuilds a fresh population seeded with the saved
// best, so a resumed run keeps the best score it had but does not replay
// the exact trajectory of an uninterrupted run. Saving the full population
// plus cache would tie the file format to engine internals for little gain;
// the score of the resumed run can only improve on the checkpointed one.
type Checkpoint struct {
	// JobID is the unique identifier of the run this snapshot belongs to.
	JobID string `json:"jobId"`

	// Problem is the registered name of the problem being solved.
	Problem string `json:"problem"`

	// Params are the run parameters, needed to validate resume requests.
	Params problems.RunParams `json:"params"`

	// Generation is the number of completed generations at snapshot time.
	Generation int `json:"generation"`

	// Best is the rendered best genome found so far.
	Best string `json:"best"`

	// BestScore is the score of Best.
	BestScore float64 `json:"bestScore"`

	// Evaluations counts distinct fitness evaluations so far.
	Evaluations int `json:"evaluations"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`
}

// CheckpointInfo is checkpoint metadata without the genome payload, used
// for listings.
type CheckpointInfo struct {
	JobID       string    `json:"jobId"`
	Problem     string    `json:"problem"`
	Generation  int       `json:"generation"`
	BestScore   float64   `json:"bestScore"`
	Evaluations int       `json:"evaluations"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCheckpoint builds a checkpoint from run state, stamped with the
// current time.
func NewCheckpoint(jobID, problem string, params problems.RunParams, progress problems.Progress) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		Problem:     problem,
		Params:      params,
		Generation:  progress.Generation,
		Best:        progress.Best,
		BestScore:   progress.BestScore,
		Evaluations: progress.Evaluations,
		Timestamp:   time.Now(),
	}
}

// ToInfo strips a checkpoint down to its listing metadata.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:       c.JobID,
		Problem:     c.Problem,
		Generation:  c.Generation,
		BestScore:   c.BestScore,
		Evaluations: c.Evaluations,
		Timestamp:   c.Timestamp,
	}
}

// Validate checks that the checkpoint carries everything a resume needs.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.Problem == "" {
		return &ValidationError{Field: "Problem", Reason: "cannot be empty"}
	}
	if c.Best == "" {
		return &ValidationError{Field: "Best", Reason: "cannot be empty"}
	}
	if c.Generation < 0 {
		return &ValidationError{Field: "Generation", Reason: "cannot be negative"}
	}
	if c.Evaluations <= 0 {
		return &ValidationError{Field: "Evaluations", Reason: "must be positive"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError reports a checkpoint field that fails validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks that a resume request targets the same problem
// instance this checkpoint was taken from. The problem name and seed pin
// the instance; population size and rates may change between runs.
func (c *Checkpoint) IsCompatible(problem string, params problems.RunParams) error {
	if c.Problem != problem {
		return &CompatibilityError{
			Field:    "Problem",
			Expected: c.Problem,
			Actual:   problem,
		}
	}
	if c.Params.Seed != 0 && params.Seed != 0 && c.Params.Seed != params.Seed {
		return &CompatibilityError{
			Field:    "Seed",
			Expected: fmt.Sprintf("%d", c.Params.Seed),
			Actual:   fmt.Sprintf("%d", params.Seed),
		}
	}
	return nil
}

// CompatibilityError reports a resume request that does not match the
// checkpointed run.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
