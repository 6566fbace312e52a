package store

import (
	"testing"
	"time"

	"github.com/cwbudde/minsearch/internal/problems"
)

func TestCheckpointValidate(t *testing.T) {
	valid := createTestCheckpoint("job-1")
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid checkpoint failed validation: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Checkpoint)
	}{
		{"empty job id", func(c *Checkpoint) { c.JobID = "" }},
		{"empty problem", func(c *Checkpoint) { c.Problem = "" }},
		{"empty best", func(c *Checkpoint) { c.Best = "" }},
		{"negative generation", func(c *Checkpoint) { c.Generation = -1 }},
		{"zero evaluations", func(c *Checkpoint) { c.Evaluations = 0 }},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := createTestCheckpoint("job-1")
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("Expected validation to fail")
			}
		})
	}
}

func TestCheckpointToInfo(t *testing.T) {
	c := createTestCheckpoint("job-1")
	info := c.ToInfo()

	if info.JobID != c.JobID ||
		info.Problem != c.Problem ||
		info.Generation != c.Generation ||
		info.BestScore != c.BestScore ||
		info.Evaluations != c.Evaluations {
		t.Fatalf("Info does not match checkpoint: %+v vs %+v", info, c)
	}
}

func TestCheckpointIsCompatible(t *testing.T) {
	c := createTestCheckpoint("job-1")

	if err := c.IsCompatible("knapsack", c.Params); err != nil {
		t.Fatalf("Same problem and seed should be compatible: %v", err)
	}

	if err := c.IsCompatible("tsp", c.Params); err == nil {
		t.Fatal("Different problem should be incompatible")
	}

	other := c.Params
	other.Seed = c.Params.Seed + 1
	if err := c.IsCompatible("knapsack", other); err == nil {
		t.Fatal("Different explicit seed should be incompatible")
	}

	// Seed 0 means "pick one", which is always acceptable.
	unseeded := problems.RunParams{}
	if err := c.IsCompatible("knapsack", unseeded); err != nil {
		t.Fatalf("Unseeded resume should be compatible: %v", err)
	}
}
