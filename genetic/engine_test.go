package genetic

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newEngine builds an engine in the requested execution mode with a seeded
// random source. Callers must Close the returned engine.
func newEngine[X comparable](mode string, seed int64) *Engine[X] {
	rng := rand.New(rand.NewSource(seed))
	if mode == "parallel" {
		return NewParallel[X](4, rng)
	}
	return NewSerial[X](rng)
}

var engineModes = []string{"serial", "parallel"}

// countingCreation returns unique candidates and counts its invocations.
// Safe for concurrent use, since the parallel engine calls it from workers.
type countingCreation struct {
	count atomic.Int64
}

func (c *countingCreation) create() string {
	return strconv.FormatInt(c.count.Add(1), 10)
}

func TestZeroGenerationsMeansOnlyCreation(t *testing.T) {
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			for _, populationSize := range []int{10, 30, 90} {
				creation := &countingCreation{}
				var fitnessCalls atomic.Int64

				cfg, err := NewConfigBuilder[string]().
					PopulationSize(populationSize).
					MaxGenerations(0).
					Creation(creation.create).
					Crossover(func(a, b string) string { return b }).
					Mutation(func(s string) string { return s }).
					Maximize(func(s string) float64 {
						fitnessCalls.Add(1)
						return 0
					}).
					Build()
				if err != nil {
					t.Fatalf("Build failed: %v", err)
				}

				e := newEngine[string](mode, 1)
				e.Init(cfg)
				e.Run(context.Background())
				e.Close()

				if got := creation.count.Load(); got != int64(populationSize) {
					t.Fatalf("Creation was invoked %d times, want %d", got, populationSize)
				}
				if got := fitnessCalls.Load(); got != 0 {
					t.Fatalf("Fitness was invoked %d times, want 0", got)
				}
				if got := e.State().Generation; got != 0 {
					t.Fatalf("Generation counter was %d, want 0", got)
				}
			}
		})
	}
}

func TestDegenerateRatesMeanOnlyRandomCreations(t *testing.T) {
	// The rates cannot be exactly zero, but at 1e-6 less than one individual
	// survives, mutates or crosses over per generation.
	const populationSize = 100
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			for generations := 0; generations < 6; generations++ {
				creation := &countingCreation{}
				var crossoverCalls, mutationCalls atomic.Int64

				cfg, err := NewConfigBuilder[string]().
					PopulationSize(populationSize).
					MaxGenerations(generations).
					SurvivalRate(1e-6).
					CrossoverRate(1e-6).
					MutationRate(1e-6).
					Creation(creation.create).
					Crossover(func(a, b string) string {
						crossoverCalls.Add(1)
						return a
					}).
					Mutation(func(s string) string {
						mutationCalls.Add(1)
						return s
					}).
					Maximize(func(s string) float64 { return float64(len(s)) }).
					Build()
				if err != nil {
					t.Fatalf("Build failed: %v", err)
				}

				e := newEngine[string](mode, int64(generations)+1)
				e.Init(cfg)
				e.Run(context.Background())
				e.Close()

				if got := crossoverCalls.Load(); got != 0 {
					t.Fatalf("Crossover was invoked %d times, want 0", got)
				}
				if got := mutationCalls.Load(); got != 0 {
					t.Fatalf("Mutation was invoked %d times, want 0", got)
				}
				want := int64(populationSize * (generations + 1))
				if got := creation.count.Load(); got != want {
					t.Fatalf("Creation was invoked %d times, want %d", got, want)
				}
			}
		})
	}
}

func TestMaxGenerations(t *testing.T) {
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			for _, generations := range []int{0, 1, 2, 5, 10, 30} {
				var next atomic.Int64
				cfg, err := NewConfigBuilder[int]().
					PopulationSize(50).
					MaxGenerations(generations).
					Creation(func() int { return int(next.Add(1)) }).
					Crossover(func(a, b int) int { return a + b }).
					Mutation(func(x int) int { return x + 1 }).
					Maximize(func(x int) float64 { return float64(x) }).
					Build()
				if err != nil {
					t.Fatalf("Build failed: %v", err)
				}

				e := newEngine[int](mode, int64(generations)+17)
				e.Init(cfg)
				e.Run(context.Background())
				e.Close()

				if got := e.State().Generation; got != generations {
					t.Fatalf("Generation counter was %d, want %d", got, generations)
				}
			}
		})
	}
}

func TestStopCriterion(t *testing.T) {
	const limit = 500
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			var next atomic.Int64
			cfg, err := NewConfigBuilder[int]().
				PopulationSize(20).
				MaxGenerations(10_000).
				StopCriterion(func(x int) bool { return x >= limit }).
				Creation(func() int { return int(next.Add(1)) }).
				Crossover(func(a, b int) int { return a + b }).
				Mutation(func(x int) int { return x + 1 }).
				Maximize(func(x int) float64 { return float64(x) }).
				Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			e := newEngine[int](mode, 3)
			e.Init(cfg)
			e.Run(context.Background())
			e.Close()

			// The check runs before scoring, so the criterion must hold for a
			// member of the terminal generation's population.
			satisfied := false
			for _, x := range e.State().Population {
				if x >= limit {
					satisfied = true
					break
				}
			}
			if !satisfied {
				t.Fatal("No population member satisfies the stop criterion")
			}
		})
	}
}

func TestSizeConservation(t *testing.T) {
	const (
		populationSize = 50
		generations    = 10
	)
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			observed := 0
			cfg, err := NewConfigBuilder[string]().
				PopulationSize(populationSize).
				MaxGenerations(generations).
				Creation(func() string { return randomDigits() }).
				Crossover(func(a, b string) string { return a[:len(a)/2] + b[len(b)/2:] }).
				Mutation(func(s string) string { return s + "0" }).
				Maximize(func(s string) float64 { return float64(len(s)) }).
				Observer(func(s State[string]) {
					observed++
					if s.Generation != observed {
						t.Errorf("Observer saw generation %d, want %d", s.Generation, observed)
					}
					if len(s.Population) != populationSize {
						t.Errorf("Generation %d population sized %d, want %d",
							s.Generation, len(s.Population), populationSize)
					}
				}).
				Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			e := newEngine[string](mode, 23)
			e.Init(cfg)
			e.Run(context.Background())
			e.Close()

			if observed != generations {
				t.Fatalf("Observer fired %d times, want %d", observed, generations)
			}
		})
	}
}

func TestAtMostOnceEvaluation(t *testing.T) {
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			var (
				mu    sync.Mutex
				calls = make(map[int]int)
				next  atomic.Int64
			)
			cfg, err := NewConfigBuilder[int]().
				PopulationSize(20).
				MaxGenerations(8).
				SurvivalRate(0.2).
				CrossoverRate(0.5).
				MutationRate(0.3).
				// Only eight distinct candidates exist, so every generation is
				// full of duplicates.
				Creation(func() int { return int(next.Add(1)) % 8 }).
				Crossover(func(a, b int) int { return a }).
				Mutation(func(x int) int { return x }).
				Maximize(func(x int) float64 {
					mu.Lock()
					calls[x]++
					mu.Unlock()
					return float64(x) + 1
				}).
				Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			e := newEngine[int](mode, 5)
			e.Init(cfg)
			e.Run(context.Background())
			e.Close()

			for x, n := range calls {
				if n != 1 {
					t.Fatalf("Fitness was invoked %d times for candidate %d, want 1", n, x)
				}
			}
		})
	}
}

func TestDeterministicSerialRuns(t *testing.T) {
	run := func() (float64, int) {
		ops := rand.New(rand.NewSource(11))
		cfg, err := NewConfigBuilder[string]().
			PopulationSize(40).
			MaxGenerations(15).
			Creation(func() string { return strconv.Itoa(ops.Intn(1_000_000)) }).
			Crossover(func(a, b string) string { return a[:len(a)/2] + b[len(b)/2:] }).
			Mutation(func(s string) string { return s + strconv.Itoa(ops.Intn(10)) }).
			Maximize(func(s string) float64 { return float64(len(s)) }).
			Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		e := NewSerial[string](rand.New(rand.NewSource(5)))
		e.Init(cfg)
		e.Run(context.Background())
		state := e.State()
		_, best, ok := state.Best(cfg.compare)
		if !ok {
			t.Fatal("No best candidate found")
		}
		return best, len(state.Scores)
	}

	firstBest, firstEvals := run()
	secondBest, secondEvals := run()
	if firstBest != secondBest || firstEvals != secondEvals {
		t.Fatalf("Identically seeded runs diverged: best %f/%f, evaluations %d/%d",
			firstBest, secondBest, firstEvals, secondEvals)
	}
}

func TestSerialParallelSameEvaluations(t *testing.T) {
	const populationSize = 20

	// Seed the whole first generation and use pure operators, so both modes
	// consume the same random draws and must evaluate the same set.
	seeds := make([]string, populationSize)
	for i := range seeds {
		seeds[i] = strings.Repeat("x", i+1)
	}

	run := func(mode string) State[string] {
		creation := &countingCreation{}
		cfg, err := NewConfigBuilder[string]().
			PopulationSize(populationSize).
			MaxGenerations(1).
			FirstGeneration(seeds...).
			Creation(creation.create).
			Crossover(func(a, b string) string { return a + b }).
			Mutation(func(s string) string { return s + "y" }).
			Maximize(func(s string) float64 { return float64(len(s)) }).
			Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		e := newEngine[string](mode, 77)
		defer e.Close()
		e.Init(cfg)
		e.Run(context.Background())
		return e.State()
	}

	serial := run("serial")
	parallel := run("parallel")

	if diff := cmp.Diff(serial.Scores, parallel.Scores); diff != "" {
		t.Fatalf("Score caches differ between serial and parallel (-serial +parallel):\n%s", diff)
	}
	if serial.Crossovers != parallel.Crossovers || serial.Mutations != parallel.Mutations {
		t.Fatalf("Operation counts differ: crossovers %d/%d, mutations %d/%d",
			serial.Crossovers, parallel.Crossovers, serial.Mutations, parallel.Mutations)
	}
	if serial.Generation != 1 || parallel.Generation != 1 {
		t.Fatalf("Generation counters were %d and %d, want 1", serial.Generation, parallel.Generation)
	}
}

func TestCallerPanicPropagates(t *testing.T) {
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			var next atomic.Int64
			cfg, err := NewConfigBuilder[int]().
				PopulationSize(10).
				MaxGenerations(3).
				Creation(func() int { return int(next.Add(1)) }).
				Crossover(func(a, b int) int { return a }).
				Mutation(func(x int) int { return x }).
				Maximize(func(x int) float64 { panic("fitness exploded") }).
				Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			e := newEngine[int](mode, 9)
			defer e.Close()
			e.Init(cfg)

			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("Expected the fitness panic to propagate")
				}
				if r != "fitness exploded" {
					t.Fatalf("Recovered %v, want the original panic value", r)
				}
			}()
			e.Run(context.Background())
		})
	}
}

func TestRunBeforeInitPanics(t *testing.T) {
	e := NewSerial[int](rand.New(rand.NewSource(1)))
	defer func() {
		if recover() == nil {
			t.Fatal("Expected Run to panic before Init")
		}
	}()
	e.Run(context.Background())
}

// TestEvolveDigitStrings runs the reference scenario: population 100,
// survival 0.1, crossover 0.7, mutation 0.1, maximizing string length over
// random digit strings for 10 generations.
func TestEvolveDigitStrings(t *testing.T) {
	const (
		populationSize = 100
		generations    = 10
	)
	for _, mode := range engineModes {
		t.Run(mode, func(t *testing.T) {
			cfg, err := NewConfigBuilder[string]().
				PopulationSize(populationSize).
				MaxGenerations(generations).
				SurvivalRate(0.1).
				CrossoverRate(0.7).
				MutationRate(0.1).
				Creation(func() string { return randomDigits() }).
				Crossover(func(a, b string) string { return a[:len(a)/2] + b[len(b)/2:] }).
				Mutation(func(s string) string { return s + strconv.Itoa(rand.Intn(10)) }).
				Maximize(func(s string) float64 { return float64(len(s)) }).
				Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			e := newEngine[string](mode, 31)
			e.Init(cfg)
			e.Run(context.Background())
			e.Close()

			state := e.State()
			if len(state.Population) != populationSize {
				t.Fatalf("Final population sized %d, want %d", len(state.Population), populationSize)
			}
			if len(state.Scores) < populationSize {
				t.Fatalf("Score cache holds %d entries, want at least %d", len(state.Scores), populationSize)
			}
			if state.Generation != generations {
				t.Fatalf("Generation counter was %d, want %d", state.Generation, generations)
			}
			if state.SurvivingPopulation != 10 {
				t.Fatalf("Surviving population was %d, want 10", state.SurvivingPopulation)
			}
		})
	}
}

// randomDigits returns 1 to 20 random decimal digits. Uses the package-level
// source, which is safe for concurrent callers.
func randomDigits() string {
	n := 1 + rand.Intn(20)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(byte('0' + rand.Intn(10)))
	}
	return sb.String()
}
