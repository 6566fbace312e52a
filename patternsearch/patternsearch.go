// Package patternsearch implements a derivative-free pattern search for
// black-box minimization. Each step probes the objective at two points per
// dimension around the current center; if no probe improves on the center,
// the step size shrinks. The search stops once the step size drops below
// epsilon.
//
// The objective is evaluated on 2*d points per step, so the algorithm is not
// ideal for high-dimensionality problems.
package patternsearch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

// NeighborFunc produces a new point by moving the center along the given
// dimension by step (which may be negative). It must not mutate center.
type NeighborFunc[X any] func(center X, dimension int, step float64) X

// Search is a configured pattern search. Build one through Builder.
type Search[X any] struct {
	step       float64
	factor     float64
	epsilon    float64
	start      X
	dimensions int
	objective  func(X) float64
	neighbor   NeighborFunc[X]
	workers    int
}

// Builder assembles and validates a Search.
type Builder[X any] struct {
	search   Search[X]
	hasStart bool
	errs     []error
}

// NewBuilder returns a builder with step 1.0, shrink factor 0.5, epsilon
// 1e-6, 2 dimensions and serial execution.
func NewBuilder[X any]() *Builder[X] {
	return &Builder[X]{
		search: Search[X]{
			step:       1.0,
			factor:     0.5,
			epsilon:    1e-6,
			dimensions: 2,
			workers:    1,
		},
	}
}

func (b *Builder[X]) fail(format string, args ...any) *Builder[X] {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

// Step sets the initial probe distance. Must be > 0.
func (b *Builder[X]) Step(step float64) *Builder[X] {
	if step <= 0 {
		return b.fail("step must be > 0 but was %f", step)
	}
	b.search.step = step
	return b
}

// Factor sets the multiplier applied to the step when shrinking.
// Must be strictly between 0 and 1.
func (b *Builder[X]) Factor(factor float64) *Builder[X] {
	if factor <= 0 || factor >= 1 {
		return b.fail("factor must be > 0 and < 1 but was %f", factor)
	}
	b.search.factor = factor
	return b
}

// Epsilon sets the smallest step size worth probing. Must be >= 0.
func (b *Builder[X]) Epsilon(epsilon float64) *Builder[X] {
	if epsilon < 0 {
		return b.fail("epsilon must be >= 0 but was %f", epsilon)
	}
	b.search.epsilon = epsilon
	return b
}

// Dimensions sets the number of coordinates probed per step. Must be >= 1.
func (b *Builder[X]) Dimensions(d int) *Builder[X] {
	if d < 1 {
		return b.fail("dimensions must be >= 1 but was %d", d)
	}
	b.search.dimensions = d
	return b
}

// StartingPoint sets the initial center.
func (b *Builder[X]) StartingPoint(start X) *Builder[X] {
	b.search.start = start
	b.hasStart = true
	return b
}

// Minimize sets the objective function.
func (b *Builder[X]) Minimize(objective func(X) float64) *Builder[X] {
	if objective == nil {
		return b.fail("the objective function cannot be nil")
	}
	b.search.objective = objective
	return b
}

// Neighbor sets the function generating probe points.
func (b *Builder[X]) Neighbor(neighbor NeighborFunc[X]) *Builder[X] {
	if neighbor == nil {
		return b.fail("the neighbor function cannot be nil")
	}
	b.search.neighbor = neighbor
	return b
}

// Parallel fans the 2*d probes of each step out to the given number of
// goroutines. Must be >= 1; 1 means serial execution.
func (b *Builder[X]) Parallel(workers int) *Builder[X] {
	if workers < 1 {
		return b.fail("workers must be >= 1 but was %d", workers)
	}
	b.search.workers = workers
	return b
}

// Build validates the configuration and returns the search.
func (b *Builder[X]) Build() (*Search[X], error) {
	if !b.hasStart {
		b.fail("a starting point is required")
	}
	if b.search.objective == nil {
		b.fail("an objective function is required")
	}
	if b.search.neighbor == nil {
		b.fail("a neighbor function is required")
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	s := b.search
	return &s, nil
}

type probe[X any] struct {
	point X
	value float64
	valid bool
}

// Run executes the search until the step size drops below epsilon or ctx is
// cancelled, returning the best center found and its objective value.
func (s *Search[X]) Run(ctx context.Context) (X, float64) {
	center := s.start
	value := s.objective(center)
	h := s.step

	for h >= s.epsilon && ctx.Err() == nil {
		best, bestValue := s.findBestNeighbor(center, h)
		if bestValue < value {
			// A better neighbor: move to it without shrinking.
			center, value = best, bestValue
		} else {
			h *= s.factor
		}
	}
	return center, value
}

// findBestNeighbor probes f(x+h) and f(x-h) on every dimension and returns
// the lowest-valued probe. Probes run on up to s.workers goroutines, but the
// winner is always selected in fixed probe order, so parallel execution
// returns the same point as serial.
func (s *Search[X]) findBestNeighbor(center X, h float64) (X, float64) {
	probes := make([]probe[X], 2*s.dimensions)

	if s.workers == 1 {
		for i := range probes {
			probes[i] = s.probeAt(center, i, h)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, s.workers)
		for i := range probes {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				probes[i] = s.probeAt(center, i, h)
			}(i)
		}
		wg.Wait()
	}

	var best X
	bestValue := math.Inf(1)
	for _, p := range probes {
		if p.valid && p.value < bestValue {
			best, bestValue = p.point, p.value
		}
	}
	return best, bestValue
}

// probeAt evaluates probe index i: even indices move +h along dimension i/2,
// odd indices move -h.
func (s *Search[X]) probeAt(center X, i int, h float64) probe[X] {
	step := h
	if i%2 == 1 {
		step = -h
	}
	x := s.neighbor(center, i/2, step)
	return probe[X]{point: x, value: s.objective(x), valid: true}
}
