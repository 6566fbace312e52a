package genetic

import (
	"errors"
	"fmt"
	"math/rand"
)

// WeightedChoose builds a sampling closure over values: each invocation draws
// one element with probability proportional to its weight. Prefix sums are
// precomputed once, so weights are read (and validated) exactly once per
// element at construction time.
//
// Returns an error if values is empty, if weight or rng is nil, or if any
// element produces a negative weight.
func WeightedChoose[X any](values []X, weight func(X) float64, rng *rand.Rand) (func() X, error) {
	if len(values) == 0 {
		return nil, errors.New("cannot sample from an empty collection")
	}
	if weight == nil {
		return nil, errors.New("weight function cannot be nil")
	}
	if rng == nil {
		return nil, errors.New("random source cannot be nil")
	}

	prefix := make([]float64, len(values))
	total := 0.0
	for i, v := range values {
		w := weight(v)
		if w < 0 {
			return nil, fmt.Errorf("negative weights are not allowed: element %v produced weight %f", v, w)
		}
		total += w
		prefix[i] = total
	}

	return func() X {
		u := rng.Float64() * total
		// Walk the prefix sums; the last element is the fallback for
		// floating-point edge cases at the top of the range.
		for i := 0; i < len(values)-1; i++ {
			if prefix[i] >= u {
				return values[i]
			}
		}
		return values[len(values)-1]
	}, nil
}
