package opt

import (
	"context"

	"github.com/cwbudde/minsearch/patternsearch"
)

// PatternSearchAdapter runs this module's pattern search over a bounded
// parameter vector, starting from the box center.
type PatternSearchAdapter struct {
	epsilon float64
	workers int
}

// NewPatternSearch creates a pattern search adapter. workers 1 means serial
// probing.
func NewPatternSearch(epsilon float64, workers int) Optimizer {
	if epsilon <= 0 {
		epsilon = 1e-8
	}
	if workers < 1 {
		workers = 1
	}
	return &PatternSearchAdapter{epsilon: epsilon, workers: workers}
}

// Run executes the pattern search.
func (p *PatternSearchAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	start := make([]float64, dim)
	step := 0.0
	for i := 0; i < dim; i++ {
		start[i] = (lower[i] + upper[i]) / 2
		if width := (upper[i] - lower[i]) / 4; width > step {
			step = width
		}
	}

	search, err := patternsearch.NewBuilder[[]float64]().
		StartingPoint(start).
		Step(step).
		Epsilon(p.epsilon).
		Dimensions(dim).
		Minimize(eval).
		Neighbor(func(center []float64, dimension int, step float64) []float64 {
			next := make([]float64, len(center))
			copy(next, center)
			next[dimension] = clamp(next[dimension]+step, lower[dimension], upper[dimension])
			return next
		}).
		Parallel(p.workers).
		Build()
	if err != nil {
		// All inputs are validated above; reaching this is a programming error.
		panic(err)
	}

	return search.Run(context.Background())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
