package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
	"github.com/google/uuid"
)

// JobState represents the current state of a job.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobRequest is the payload for creating a job.
type JobRequest struct {
	// Problem is the registered name of the problem to solve.
	Problem string `json:"problem"`

	// Params configure the evolution run.
	Params problems.RunParams `json:"params"`

	// CheckpointInterval saves a checkpoint every N seconds. 0 disables
	// checkpointing for this job.
	CheckpointInterval int `json:"checkpointInterval,omitempty"`
}

// Job represents one evolution run.
type Job struct {
	ID                 string             `json:"id"`
	State              JobState           `json:"state"`
	Problem            string             `json:"problem"`
	Params             problems.RunParams `json:"params"`
	CheckpointInterval int                `json:"checkpointInterval,omitempty"`
	Generation         int                `json:"generation"`
	Best               string             `json:"best,omitempty"`
	BestScore          float64            `json:"bestScore"`
	Evaluations        int                `json:"evaluations"`
	StartTime          time.Time          `json:"startTime"`
	EndTime            *time.Time         `json:"endTime,omitempty"`
	Error              string             `json:"error,omitempty"`
}

// JobManager tracks job lifecycles and their cancel handles.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	cancels     map[string]context.CancelFunc
	broadcaster *EventBroadcaster
}

// NewJobManager creates an empty JobManager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		cancels:     make(map[string]context.CancelFunc),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a new pending job for the given request and returns a
// snapshot of it.
func (jm *JobManager) CreateJob(req JobRequest) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:                 uuid.New().String(),
		State:              StatePending,
		Problem:            req.Problem,
		Params:             req.Params,
		CheckpointInterval: req.CheckpointInterval,
		StartTime:          time.Now(),
	}

	jm.jobs[job.ID] = job
	return *job
}

// GetJob retrieves a snapshot of a job by ID. The worker goroutine keeps
// mutating the live record under the manager's lock, so callers only ever
// see copies; writes go through UpdateJob.
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns snapshots of all known jobs.
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// UpdateJob atomically updates a job using the provided function.
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// RegisterCancel stores the cancel handle for a running job.
func (jm *JobManager) RegisterCancel(id string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[id] = cancel
}

// Cancel requests cancellation of a job. It reports whether the job existed
// and still had a cancel handle.
func (jm *JobManager) Cancel(id string) bool {
	jm.mu.Lock()
	cancel, ok := jm.cancels[id]
	delete(jm.cancels, id)
	jm.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// ReleaseCancel drops the cancel handle of a finished job.
func (jm *JobManager) ReleaseCancel(id string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if cancel, ok := jm.cancels[id]; ok {
		// Release the context's resources even though nobody will observe
		// the cancellation anymore.
		cancel()
		delete(jm.cancels, id)
	}
}

// GetRunningJobs returns snapshots of all jobs currently in the running
// state.
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	running := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			running = append(running, *job)
		}
	}
	return running
}
