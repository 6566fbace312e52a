package annealing

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

func TestNewValidation(t *testing.T) {
	creation := func() float64 { return 0 }
	neighbor := func(x float64) float64 { return x }
	energy := func(x float64) float64 { return x * x }

	tests := []struct {
		name string
		cfg  Config[float64]
	}{
		{"missing creation", Config[float64]{Neighbor: neighbor, Energy: energy}},
		{"missing neighbor", Config[float64]{Creation: creation, Energy: energy}},
		{"missing energy", Config[float64]{Creation: creation, Neighbor: neighbor}},
		{"negative iterations", Config[float64]{Creation: creation, Neighbor: neighbor, Energy: energy, Iterations: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("Expected a validation error")
			}
		})
	}
}

func TestMinimizesParabola(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a, err := New(Config[float64]{
		Creation: func() float64 { return 40 },
		Neighbor: func(x float64) float64 { return x + rng.NormFloat64() },
		Energy:   func(x float64) float64 { return (x - 3) * (x - 3) },
		Rand:     rng,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	best, energy := a.Run(context.Background())
	if math.Abs(best-3) > 0.5 {
		t.Fatalf("Converged to %f, want ~3", best)
	}
	if energy > 0.25 {
		t.Fatalf("Final energy was %f, want < 0.25", energy)
	}
}

func TestDeterministicWithSeededSource(t *testing.T) {
	run := func() (float64, float64) {
		rng := rand.New(rand.NewSource(7))
		a, err := New(Config[float64]{
			Creation:   func() float64 { return 10 },
			Neighbor:   func(x float64) float64 { return x + rng.Float64() - 0.5 },
			Energy:     func(x float64) float64 { return x * x },
			Iterations: 2_000,
			Rand:       rng,
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return a.Run(context.Background())
	}

	b1, e1 := run()
	b2, e2 := run()
	if b1 != b2 || e1 != e2 {
		t.Fatalf("Identically seeded runs diverged: (%f, %f) vs (%f, %f)", b1, e1, b2, e2)
	}
}

func TestRunHonorsContext(t *testing.T) {
	calls := 0
	a, err := New(Config[float64]{
		Creation: func() float64 { return 1 },
		Neighbor: func(x float64) float64 { calls++; return x },
		Energy:   func(x float64) float64 { return x },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	best, _ := a.Run(ctx)
	if calls != 0 {
		t.Fatalf("Neighbor was invoked %d times after cancellation, want 0", calls)
	}
	if best != 1 {
		t.Fatalf("Best was %f, want the starting solution", best)
	}
}
