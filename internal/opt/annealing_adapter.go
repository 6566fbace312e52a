package opt

import (
	"context"
	"math/rand"

	"github.com/cwbudde/minsearch/annealing"
)

// AnnealingAdapter runs this module's simulated annealing over a bounded
// parameter vector with Gaussian neighbor moves.
type AnnealingAdapter struct {
	iterations int
	seed       int64
}

// NewAnnealing creates a simulated annealing adapter.
func NewAnnealing(iterations int, seed int64) Optimizer {
	return &AnnealingAdapter{iterations: iterations, seed: seed}
}

// Run executes the annealing trajectory.
func (a *AnnealingAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	rng := rand.New(rand.NewSource(a.seed))

	annealer, err := annealing.New(annealing.Config[[]float64]{
		Creation: func() []float64 {
			x := make([]float64, dim)
			for i := range x {
				x[i] = lower[i] + rng.Float64()*(upper[i]-lower[i])
			}
			return x
		},
		Neighbor: func(x []float64) []float64 {
			next := make([]float64, len(x))
			copy(next, x)
			i := rng.Intn(len(next))
			scale := (upper[i] - lower[i]) / 20
			next[i] = clamp(next[i]+rng.NormFloat64()*scale, lower[i], upper[i])
			return next
		},
		Energy:     eval,
		Iterations: a.iterations,
		Rand:       rng,
	})
	if err != nil {
		panic(err)
	}

	return annealer.Run(context.Background())
}
