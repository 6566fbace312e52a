// Package problems hosts the built-in demo problems runnable through the CLI
// and the job server. Each problem wires its own genome type and operators
// into the genetic engine and reports progress in a renderer-independent
// string form.
package problems

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/minsearch/genetic"
)

// RunParams holds the engine hyperparameters for one problem run.
// Zero values select the problem's defaults.
type RunParams struct {
	PopulationSize int     `json:"populationSize,omitempty"`
	MaxGenerations int     `json:"maxGenerations,omitempty"`
	SurvivalRate   float64 `json:"survivalRate,omitempty"`
	CrossoverRate  float64 `json:"crossoverRate,omitempty"`
	MutationRate   float64 `json:"mutationRate,omitempty"`
	// Seed seeds the run's random source; 0 means time-seeded.
	Seed int64 `json:"seed,omitempty"`
	// Workers > 1 selects the parallel engine with that pool size.
	Workers int `json:"workers,omitempty"`
	// FirstGeneration seeds the initial population, each entry in the
	// problem's string representation.
	FirstGeneration []string `json:"firstGeneration,omitempty"`
}

// withDefaults fills zero-valued fields from the problem's defaults.
func (p RunParams) withDefaults(populationSize, maxGenerations int, survival, crossover, mutation float64) RunParams {
	if p.PopulationSize == 0 {
		p.PopulationSize = populationSize
	}
	if p.MaxGenerations == 0 {
		p.MaxGenerations = maxGenerations
	}
	if p.SurvivalRate == 0 {
		p.SurvivalRate = survival
	}
	if p.CrossoverRate == 0 {
		p.CrossoverRate = crossover
	}
	if p.MutationRate == 0 {
		p.MutationRate = mutation
	}
	return p
}

// Progress reports the state of a run after one completed generation.
type Progress struct {
	Generation  int     `json:"generation"`
	Best        string  `json:"best"`
	BestScore   float64 `json:"bestScore"`
	Evaluations int     `json:"evaluations"`
	MeanScore   float64 `json:"meanScore"`
	ScoreStdDev float64 `json:"scoreStdDev"`
}

// Result is the outcome of a completed run.
type Result struct {
	Problem     string  `json:"problem"`
	Best        string  `json:"best"`
	BestScore   float64 `json:"bestScore"`
	Generations int     `json:"generations"`
	Evaluations int     `json:"evaluations"`
}

// Problem is one self-contained demo optimization.
type Problem interface {
	// Name is the registry key, usable as a CLI argument.
	Name() string
	// Description is a one-line human-readable summary.
	Description() string
	// Run executes the problem until its termination criteria fire or ctx is
	// cancelled. onProgress, if not nil, is invoked after every generation.
	Run(ctx context.Context, params RunParams, onProgress func(Progress)) (*Result, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Problem)
)

func register(p Problem) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name()] = p
}

// Get returns the problem registered under name.
func Get(name string) (Problem, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %q (available: %v)", name, namesLocked())
	}
	return p, nil
}

// Names returns the registered problem names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lockedSource serializes access to a rand source so that caller-supplied
// operators can share one seeded stream even when the parallel engine calls
// them from several workers.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// newRand returns a concurrency-safe seeded source; seed 0 means time-seeded.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)})
}

// runGA assembles the engine for one problem run and converts the final
// state into a Result. configure must set the operators, the fitness
// function and any extra termination criteria on the builder.
func runGA[X comparable](
	ctx context.Context,
	name string,
	params RunParams,
	rng *rand.Rand,
	render func(X) string,
	configure func(*genetic.ConfigBuilder[X]),
	onProgress func(Progress),
) (*Result, error) {
	builder := genetic.NewConfigBuilder[X]().
		PopulationSize(params.PopulationSize).
		MaxGenerations(params.MaxGenerations).
		SurvivalRate(params.SurvivalRate).
		CrossoverRate(params.CrossoverRate).
		MutationRate(params.MutationRate)
	configure(builder)

	var cfg genetic.Config[X]
	if onProgress != nil {
		builder.Observer(func(s genetic.State[X]) {
			onProgress(progressFrom(s, render, cfg.Comparator()))
		})
	}

	cfg, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration for problem %s: %w", name, err)
	}

	var engine *genetic.Engine[X]
	if params.Workers > 1 {
		engine = genetic.NewParallel[X](params.Workers, rng)
	} else {
		engine = genetic.NewSerial[X](rng)
	}
	defer engine.Close()

	engine.Init(cfg)
	engine.Run(ctx)

	state := engine.State()
	best, bestScore, ok := state.Best(cfg.Comparator())
	if !ok {
		return nil, fmt.Errorf("problem %s terminated before scoring any candidate", name)
	}
	return &Result{
		Problem:     name,
		Best:        render(best),
		BestScore:   bestScore,
		Generations: state.Generation,
		Evaluations: len(state.Scores),
	}, nil
}

func progressFrom[X comparable](s genetic.State[X], render func(X) string, compare genetic.Comparator) Progress {
	best, bestScore, _ := s.Best(compare)
	scores := make([]float64, 0, len(s.Scores))
	for _, v := range s.Scores {
		scores = append(scores, v)
	}
	return Progress{
		Generation:  s.Generation,
		Best:        render(best),
		BestScore:   bestScore,
		Evaluations: len(s.Scores),
		MeanScore:   stat.Mean(scores, nil),
		ScoreStdDev: stat.StdDev(scores, nil),
	}
}
