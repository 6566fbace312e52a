// Package genetic implements a generic, pluggable genetic algorithm engine.
// Callers supply candidate creation, crossover, mutation and fitness as
// opaque functions over a comparable solution type; the engine supplies the
// generational loop, elitism, score caching, weighted parent selection and
// an optional worker-pool execution mode.
//
// The serial and parallel engines share one state machine and differ only in
// the executor that runs per-phase work items. All random draws and all
// next-generation slot assignments happen on the loop goroutine before work
// items are scheduled, so for a fixed random source both modes evaluate the
// same set of candidates and find the same best score regardless of worker
// count.
package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync/atomic"
	"time"
)

// State is a read-only snapshot of a run, taken between generations.
type State[X comparable] struct {
	// Generation counts completed generations, starting at 0.
	Generation int
	// Population is the current generation's candidates.
	Population []X
	// Scores holds every fitness value computed so far, keyed by candidate.
	Scores map[X]float64
	// SurvivingPopulation is floor(populationSize * survivalRate).
	SurvivingPopulation int
	// Mutations, Crossovers and RandomCreations count the operations of the
	// most recently completed generation.
	Mutations       int
	Crossovers      int
	RandomCreations int
}

// Best returns the best-ranked scored candidate of the snapshot according to
// the given comparator, with its score. ok is false when nothing has been
// scored yet.
func (s State[X]) Best(compare Comparator) (best X, score float64, ok bool) {
	for x, v := range s.Scores {
		if !ok || compare(v, score) < 0 {
			best, score, ok = x, v, true
		}
	}
	return best, score, ok
}

// Engine runs the generational loop for one configuration at a time.
// Not safe for concurrent use: Init, Run and State must be called from a
// single goroutine.
type Engine[X comparable] struct {
	rng  *rand.Rand
	exec executor
	pool *workerPool // nil for the serial engine

	cfg                 *Config[X]
	startTime           time.Time
	generation          int
	population          []X
	nextGeneration      []X
	nextSize            atomic.Int64
	scores              *scoreCache[X]
	survivingPopulation int
	bestOfAllTime       *orderedSet[X]

	mutations       int
	crossovers      int
	randomCreations int
}

// NewSerial returns a single-threaded engine. A nil rng is replaced with a
// time-seeded source; pass an explicitly seeded one for reproducible runs.
func NewSerial[X comparable](rng *rand.Rand) *Engine[X] {
	return &Engine[X]{rng: ensureRand(rng), exec: inlineExecutor{}}
}

// NewParallel returns an engine that fans creation, scoring, crossover and
// mutation out to a fixed-size worker pool, synchronized with a barrier
// between phases. workers <= 0 selects the available hardware parallelism.
// Call Close when done with the engine to release the pool.
func NewParallel[X comparable](workers int, rng *rand.Rand) *Engine[X] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := newWorkerPool(workers)
	return &Engine[X]{rng: ensureRand(rng), exec: pool, pool: pool}
}

func ensureRand(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rng
}

// Close releases the worker pool. It is a no-op on a serial engine.
func (e *Engine[X]) Close() {
	if e.pool != nil {
		e.pool.close()
		e.pool = nil
	}
}

// Init resets the engine for a new run of the given configuration: fresh
// population buffers, an empty score cache and an empty elite archive. The
// wall-clock budget, if any, starts counting now.
//
// The creation function must be able to produce at least
// floor(populationSize * survivalRate) distinct candidates. A creation
// function that collapses to fewer values leaves the elite archive
// underfilled, which Run treats as a fatal fault and panics on.
func (e *Engine[X]) Init(cfg Config[X]) {
	e.cfg = &cfg
	e.population = make([]X, cfg.populationSize)
	e.nextGeneration = make([]X, cfg.populationSize)
	e.nextSize.Store(0)
	e.scores = newScoreCache[X](cfg.populationSize)
	e.survivingPopulation = int(float64(cfg.populationSize) * cfg.survivalRate)
	e.bestOfAllTime = newOrderedSet[X](2 * e.survivingPopulation)
	e.generation = 0
	e.mutations = 0
	e.crossovers = 0
	e.randomCreations = 0
	e.startTime = time.Now()
}

// State returns a read-only snapshot of the run.
func (e *Engine[X]) State() State[X] {
	if e.cfg == nil {
		return State[X]{}
	}
	population := make([]X, len(e.population))
	copy(population, e.population)
	return State[X]{
		Generation:          e.generation,
		Population:          population,
		Scores:              e.scores.snapshot(),
		SurvivingPopulation: e.survivingPopulation,
		Mutations:           e.mutations,
		Crossovers:          e.crossovers,
		RandomCreations:     e.randomCreations,
	}
}

// Run executes generations until a termination criterion fires or ctx is
// cancelled; cancellation takes effect between generations, never inside
// one. Panics from caller-supplied operators propagate unmodified; an
// internal size-invariant violation panics as well, since it indicates a bug
// in the engine rather than bad input.
func (e *Engine[X]) Run(ctx context.Context) {
	if e.cfg == nil {
		panic("genetic: Run called before Init")
	}

	e.generation = 0
	e.initialCreation()

	for e.shouldContinue(ctx) {
		e.computeScores()

		e.elitism()

		e.crossovers = e.performCrossovers()

		e.mutations = e.performMutations()

		e.randomCreations = e.cfg.populationSize - e.survivingPopulation - e.crossovers
		e.addRandomCreations(e.randomCreations)

		if len(e.population) != e.cfg.populationSize || int(e.nextSize.Load()) != e.cfg.populationSize {
			panic(fmt.Sprintf(
				"genetic: population and next generation sized %d and %d, want %d",
				len(e.population), e.nextSize.Load(), e.cfg.populationSize))
		}

		e.swapPopulations()
		e.endGeneration()
		e.generation++

		if e.cfg.observer != nil {
			e.cfg.observer(e.State())
		}
	}

	// The archive is an internal optimization structure, not part of the
	// observable result.
	e.bestOfAllTime.clear()
}

// shouldContinue reports whether one more generation may run. The criteria
// are disjunctive: any satisfied one terminates the run.
func (e *Engine[X]) shouldContinue(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if e.cfg.maxDuration > 0 && time.Since(e.startTime) >= e.cfg.maxDuration {
		return false
	}
	if e.generation >= e.cfg.maxGenerations {
		return false
	}
	if e.cfg.stop != nil {
		for _, x := range e.population {
			if e.cfg.stop(x) {
				return false
			}
		}
	}
	return true
}

// initialCreation fills the population with the configured seed candidates,
// padded with fresh creations up to the population size.
func (e *Engine[X]) initialCreation() {
	i := 0
	for _, x := range e.cfg.firstGeneration {
		e.population[i] = x
		i++
	}
	for ; i < e.cfg.populationSize; i++ {
		i := i
		e.exec.submit(func() { e.population[i] = e.cfg.creation() })
	}
	e.exec.wait()
}

// computeScores evaluates every not-yet-cached distinct candidate of the
// current population, each as an independent work item. The fitness function
// is called exactly once per distinct candidate over the whole run.
func (e *Engine[X]) computeScores() {
	pending := make([]X, 0, len(e.population))
	queued := make(map[X]struct{}, len(e.population))
	for _, x := range e.population {
		if _, ok := queued[x]; ok {
			continue
		}
		queued[x] = struct{}{}
		if e.scores.has(x) {
			continue
		}
		pending = append(pending, x)
	}
	for _, x := range pending {
		x := x
		e.exec.submit(func() { e.scores.set(x, e.cfg.fitness(x)) })
	}
	e.exec.wait()
}

// elitism copies the best survivingPopulation candidates seen so far into
// the head of the next generation. The first time it ranks the whole score
// cache; afterwards it merges the current population into the archive, takes
// the best, then trims the archive back down (grow-then-trim).
func (e *Engine[X]) elitism() {
	if e.bestOfAllTime.len() == 0 {
		ranked := e.scores.keys()
		e.sortByScore(ranked)
		n := min(e.survivingPopulation, len(ranked))
		for i := 0; i < n; i++ {
			e.bestOfAllTime.add(ranked[i])
			e.nextGeneration[i] = ranked[i]
		}
		e.nextSize.Store(int64(n))
		return
	}

	distinct := make([]X, 0, len(e.population))
	seen := make(map[X]struct{}, len(e.population))
	for _, x := range e.population {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		distinct = append(distinct, x)
	}
	e.sortByScore(distinct)
	for i := 0; i < min(e.survivingPopulation, len(distinct)); i++ {
		e.bestOfAllTime.add(distinct[i])
	}
	e.checkArchiveSize()

	ranked := e.bestOfAllTime.values()
	e.sortByScore(ranked)
	for i := 0; i < e.survivingPopulation; i++ {
		e.nextGeneration[i] = ranked[i]
	}
	e.nextSize.Store(int64(e.survivingPopulation))

	for _, x := range ranked[e.survivingPopulation:] {
		e.bestOfAllTime.remove(x)
	}
	e.checkArchiveSize()
}

func (e *Engine[X]) checkArchiveSize() {
	if e.bestOfAllTime.len() < e.survivingPopulation {
		panic(fmt.Sprintf("genetic: elite archive sized %d, want at least %d",
			e.bestOfAllTime.len(), e.survivingPopulation))
	}
}

// sortByScore orders candidates by the configured comparator; ties keep the
// slice's existing relative order.
func (e *Engine[X]) sortByScore(candidates []X) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, _ := e.scores.get(candidates[i])
		b, _ := e.scores.get(candidates[j])
		return e.cfg.compare(a, b) < 0
	})
}

// performCrossovers fills next-generation slots with children of weighted-
// sampled parent pairs. Bernoulli trials, parent draws and slot assignment
// all happen here on the loop goroutine; only the crossover operator itself
// runs on the executor. At most populationSize attempts are made, so a low
// crossover rate cannot loop forever.
func (e *Engine[X]) performCrossovers() int {
	count := 0
	draw, err := WeightedChoose(e.population, func(x X) float64 {
		score, _ := e.scores.get(x)
		return score
	}, e.rng)
	if err != nil {
		// The population is never empty here, so this means the fitness
		// function produced a negative selection weight.
		panic(fmt.Sprintf("genetic: cannot sample crossover parents: %v", err))
	}

	for i := 0; int(e.nextSize.Load()) < e.cfg.populationSize && i < e.cfg.populationSize; i++ {
		if e.rng.Float64() < e.cfg.crossoverRate {
			first := draw()
			second := draw()
			for second == first {
				second = draw()
			}
			slot := int(e.nextSize.Add(1)) - 1
			e.exec.submit(func() {
				e.nextGeneration[slot] = e.cfg.crossover(first, second)
			})
			count++
		}
	}
	e.exec.wait()
	return count
}

// performMutations replaces already-placed next-generation candidates
// (elites and crossover children alike) with their mutation, each slot
// subject to an independent Bernoulli trial drawn on the loop goroutine.
func (e *Engine[X]) performMutations() int {
	count := 0
	n := int(e.nextSize.Load())
	for i := 0; i < n; i++ {
		if e.rng.Float64() < e.cfg.mutationRate {
			i := i
			e.exec.submit(func() {
				e.nextGeneration[i] = e.cfg.mutation(e.nextGeneration[i])
			})
			count++
		}
	}
	e.exec.wait()
	return count
}

// addRandomCreations appends n freshly created candidates to the next
// generation.
func (e *Engine[X]) addRandomCreations(n int) {
	for i := 0; i < n; i++ {
		slot := int(e.nextSize.Add(1)) - 1
		e.exec.submit(func() { e.nextGeneration[slot] = e.cfg.creation() })
	}
	e.exec.wait()
}

// swapPopulations promotes the next generation; the old population buffer is
// reused, no copy.
func (e *Engine[X]) swapPopulations() {
	e.population, e.nextGeneration = e.nextGeneration, e.population
}

// endGeneration clears the reused buffer so stale candidates cannot leak
// into the following generation.
func (e *Engine[X]) endGeneration() {
	clear(e.nextGeneration)
	e.nextSize.Store(0)
}
