package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
)

func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

func createTestCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		Problem:     "knapsack",
		Params:      problems.RunParams{PopulationSize: 300, MaxGenerations: 100, Seed: 42},
		Generation:  50,
		Best:        "0110010011",
		BestScore:   1023.5,
		Evaluations: 9000,
		Timestamp:   time.Now(),
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(filepath.Join(tempDir, "data"))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	if _, err := os.Stat(store.BaseDir()); err != nil {
		t.Fatalf("Base directory was not created: %v", err)
	}
}

func TestSaveCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	jobID := "test-job-123"
	if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	finalPath := filepath.Join(tempDir, "jobs", jobID, "checkpoint.json")
	if _, err := os.Stat(finalPath); os.IsNotExist(err) {
		t.Fatalf("Checkpoint file was not created at %s", finalPath)
	}

	if _, err := os.Stat(finalPath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file should not remain after save")
	}
}

func TestSaveCheckpointRejectsBadArguments(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveCheckpoint("", createTestCheckpoint("any")); err == nil {
		t.Fatal("Save with an empty jobID should fail")
	}
	if err := store.SaveCheckpoint("test-job", nil); err == nil {
		t.Fatal("Save with a nil checkpoint should fail")
	}
}

func TestSaveCheckpointOverwrites(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "test-job-overwrite"
	first := createTestCheckpoint(jobID)
	first.BestScore = 100

	second := createTestCheckpoint(jobID)
	second.BestScore = 200
	second.Generation = 80

	if err := store.SaveCheckpoint(jobID, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := store.SaveCheckpoint(jobID, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.BestScore != 200 || loaded.Generation != 80 {
		t.Errorf("Load returned the stale checkpoint: %+v", loaded)
	}
}

func TestLoadCheckpointRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "test-job-load"
	original := createTestCheckpoint(jobID)

	if err := store.SaveCheckpoint(jobID, original); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.JobID != original.JobID ||
		loaded.Problem != original.Problem ||
		loaded.Best != original.Best ||
		loaded.BestScore != original.BestScore ||
		loaded.Generation != original.Generation ||
		loaded.Evaluations != original.Evaluations {
		t.Errorf("Loaded checkpoint differs from saved one:\nsaved  %+v\nloaded %+v", original, loaded)
	}
	if loaded.Params.Seed != original.Params.Seed {
		t.Errorf("Params.Seed was %d, want %d", loaded.Params.Seed, original.Params.Seed)
	}
}

func TestLoadCheckpointNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadCheckpoint("nonexistent-job")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	store, tempDir := setupTestStore(t)

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints on an empty store failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("Empty store listed %d checkpoints", len(infos))
	}

	jobs := []string{"job-1", "job-2", "job-3"}
	for _, jobID := range jobs {
		if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
			t.Fatalf("Failed to save checkpoint %s: %v", jobID, err)
		}
	}

	// A directory without a checkpoint and a stray file must both be
	// skipped.
	if err := os.MkdirAll(filepath.Join(tempDir, "jobs", "half-created"), 0755); err != nil {
		t.Fatalf("Failed to create empty job directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "jobs", "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create stray file: %v", err)
	}

	infos, err = store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != len(jobs) {
		t.Fatalf("Expected %d checkpoints, got %d", len(jobs), len(infos))
	}

	found := make(map[string]bool)
	for _, info := range infos {
		found[info.JobID] = true
		if info.Problem != "knapsack" {
			t.Errorf("Checkpoint %s listed problem %q", info.JobID, info.Problem)
		}
	}
	for _, jobID := range jobs {
		if !found[jobID] {
			t.Errorf("Job %s missing from listing", jobID)
		}
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "test-job-delete"
	if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if err := store.DeleteCheckpoint(jobID); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	if _, err := store.LoadCheckpoint(jobID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := store.DeleteCheckpoint(jobID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for second delete, got %v", err)
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	const numJobs = 10
	done := make(chan bool, numJobs)

	for i := 0; i < numJobs; i++ {
		go func(idx int) {
			jobID := fmt.Sprintf("concurrent-job-%d", idx)
			if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
				t.Errorf("Concurrent save failed for job %s: %v", jobID, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < numJobs; i++ {
		<-done
	}

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != numJobs {
		t.Errorf("Expected %d checkpoints, got %d", numJobs, len(infos))
	}
}
