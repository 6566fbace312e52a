package genetic

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Comparator orders two fitness scores. Negative means a ranks before b.
type Comparator func(a, b float64) int

// Ascending ranks lower scores first (minimization).
func Ascending(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Descending ranks higher scores first (maximization).
func Descending(a, b float64) int { return Ascending(b, a) }

// Config is a validated, immutable set of operators and hyperparameters for
// one genetic algorithm run. Build one through ConfigBuilder.
type Config[X comparable] struct {
	populationSize  int
	survivalRate    float64
	crossoverRate   float64
	mutationRate    float64
	creation        func() X
	crossover       func(X, X) X
	mutation        func(X) X
	fitness         func(X) float64
	compare         Comparator
	firstGeneration []X
	maxGenerations  int
	maxDuration     time.Duration
	stop            func(X) bool
	observer        func(State[X])
}

// PopulationSize returns the configured population size.
func (c Config[X]) PopulationSize() int { return c.populationSize }

// MaxGenerations returns the generation bound, or math.MaxInt when only
// other termination criteria were configured.
func (c Config[X]) MaxGenerations() int { return c.maxGenerations }

// Comparator returns the configured score ordering (Ascending for Minimize,
// Descending for Maximize).
func (c Config[X]) Comparator() Comparator { return c.compare }

// ConfigBuilder assembles and validates a Config. Setter calls record
// violations instead of failing immediately; Build reports all of them at
// once. A builder can be used for a single Build only.
type ConfigBuilder[X comparable] struct {
	cfg   Config[X]
	seen  map[X]struct{}
	errs  []error
	built bool

	hasMaxGenerations bool
	hasMaxDuration    bool
	hasStopCriterion  bool
}

// NewConfigBuilder returns a builder preloaded with the conventional
// defaults: population 100, survival 0.1, crossover 0.7, mutation 0.1.
func NewConfigBuilder[X comparable]() *ConfigBuilder[X] {
	return &ConfigBuilder[X]{
		cfg: Config[X]{
			populationSize: 100,
			survivalRate:   0.1,
			crossoverRate:  0.7,
			mutationRate:   0.1,
		},
		seen: make(map[X]struct{}),
	}
}

func (b *ConfigBuilder[X]) fail(format string, args ...any) *ConfigBuilder[X] {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

// PopulationSize sets the number of candidates per generation. Must be >= 2.
func (b *ConfigBuilder[X]) PopulationSize(size int) *ConfigBuilder[X] {
	if size < 2 {
		return b.fail("invalid population size: needs to be >= 2 but was %d", size)
	}
	b.cfg.populationSize = size
	return b
}

// SurvivalRate sets the fraction of the population reserved for elites.
// Must be strictly between 0 and 1.
func (b *ConfigBuilder[X]) SurvivalRate(rate float64) *ConfigBuilder[X] {
	if rate <= 0.0 || rate >= 1.0 {
		return b.fail("invalid survival rate: needs to be > 0 and < 1 but was %f", rate)
	}
	b.cfg.survivalRate = rate
	return b
}

// CrossoverRate sets the per-attempt probability of producing a crossover
// child. Must be strictly between 0 and 1.
func (b *ConfigBuilder[X]) CrossoverRate(rate float64) *ConfigBuilder[X] {
	if rate <= 0.0 || rate >= 1.0 {
		return b.fail("invalid crossover rate: needs to be > 0 and < 1 but was %f", rate)
	}
	b.cfg.crossoverRate = rate
	return b
}

// MutationRate sets the per-slot probability of mutating a next-generation
// candidate. Must be strictly between 0 and 1.
func (b *ConfigBuilder[X]) MutationRate(rate float64) *ConfigBuilder[X] {
	if rate <= 0.0 || rate >= 1.0 {
		return b.fail("invalid mutation rate: needs to be > 0 and < 1 but was %f", rate)
	}
	b.cfg.mutationRate = rate
	return b
}

// MaxGenerations bounds the number of generations. Zero is legal and means
// the loop body never executes: only the initial creation happens.
func (b *ConfigBuilder[X]) MaxGenerations(generations int) *ConfigBuilder[X] {
	if generations < 0 {
		return b.fail("invalid max generations: needs to be >= 0 but was %d", generations)
	}
	b.cfg.maxGenerations = generations
	b.hasMaxGenerations = true
	return b
}

// MaxDuration bounds the wall-clock time of a run, checked between
// generations.
func (b *ConfigBuilder[X]) MaxDuration(d time.Duration) *ConfigBuilder[X] {
	if d <= 0 {
		return b.fail("invalid max duration: needs to be > 0 but was %v", d)
	}
	b.cfg.maxDuration = d
	b.hasMaxDuration = true
	return b
}

// StopCriterion stops the run when any population member satisfies the
// predicate, checked between generations before scoring.
func (b *ConfigBuilder[X]) StopCriterion(stop func(X) bool) *ConfigBuilder[X] {
	if stop == nil {
		return b.fail("the stop criterion cannot be nil")
	}
	b.cfg.stop = stop
	b.hasStopCriterion = true
	return b
}

// Creation sets the random candidate factory.
func (b *ConfigBuilder[X]) Creation(creation func() X) *ConfigBuilder[X] {
	if creation == nil {
		return b.fail("the creation function cannot be nil")
	}
	b.cfg.creation = creation
	return b
}

// Crossover sets the two-parent recombination operator.
func (b *ConfigBuilder[X]) Crossover(crossover func(X, X) X) *ConfigBuilder[X] {
	if crossover == nil {
		return b.fail("the crossover operator cannot be nil")
	}
	b.cfg.crossover = crossover
	return b
}

// Mutation sets the single-candidate mutation operator.
func (b *ConfigBuilder[X]) Mutation(mutation func(X) X) *ConfigBuilder[X] {
	if mutation == nil {
		return b.fail("the mutation operator cannot be nil")
	}
	b.cfg.mutation = mutation
	return b
}

// Maximize sets the fitness function and orders scores descending.
func (b *ConfigBuilder[X]) Maximize(fitness func(X) float64) *ConfigBuilder[X] {
	if fitness == nil {
		return b.fail("the fitness function cannot be nil")
	}
	b.cfg.fitness = fitness
	b.cfg.compare = Descending
	return b
}

// Minimize sets the fitness function and orders scores ascending.
func (b *ConfigBuilder[X]) Minimize(fitness func(X) float64) *ConfigBuilder[X] {
	if fitness == nil {
		return b.fail("the fitness function cannot be nil")
	}
	b.cfg.fitness = fitness
	b.cfg.compare = Ascending
	return b
}

// FirstGeneration adds seed candidates for the initial population.
// Duplicates are dropped; relative order of first appearance is kept.
func (b *ConfigBuilder[X]) FirstGeneration(candidates ...X) *ConfigBuilder[X] {
	for _, x := range candidates {
		if _, ok := b.seen[x]; ok {
			continue
		}
		b.seen[x] = struct{}{}
		b.cfg.firstGeneration = append(b.cfg.firstGeneration, x)
	}
	return b
}

// Observer registers a callback invoked on the loop goroutine with a
// read-only snapshot after every completed generation. Optional.
func (b *ConfigBuilder[X]) Observer(observer func(State[X])) *ConfigBuilder[X] {
	b.cfg.observer = observer
	return b
}

// Build validates the assembled configuration and returns it. A builder can
// only be built once.
func (b *ConfigBuilder[X]) Build() (Config[X], error) {
	if b.built {
		return Config[X]{}, errors.New("cannot build the same ConfigBuilder two times")
	}
	b.built = true

	if b.cfg.creation == nil {
		b.fail("the creation function is required")
	}
	if b.cfg.crossover == nil {
		b.fail("the crossover operator is required")
	}
	if b.cfg.mutation == nil {
		b.fail("the mutation operator is required")
	}
	if b.cfg.fitness == nil {
		b.fail("a fitness function is required: call Maximize or Minimize")
	}
	if !b.hasMaxGenerations && !b.hasMaxDuration && !b.hasStopCriterion {
		b.fail("at least one termination criterion is required: max generations, max duration or a stop criterion")
	}
	if len(b.cfg.firstGeneration) > b.cfg.populationSize {
		b.fail("invalid first generation size: should have been <= %d but was %d",
			b.cfg.populationSize, len(b.cfg.firstGeneration))
	}

	if len(b.errs) > 0 {
		return Config[X]{}, errors.Join(b.errs...)
	}

	if !b.hasMaxGenerations {
		b.cfg.maxGenerations = math.MaxInt
	}
	return b.cfg, nil
}
