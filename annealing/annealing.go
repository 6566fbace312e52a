// Package annealing implements simulated annealing over an opaque solution
// type: a single trajectory that always accepts improving neighbors and
// accepts worsening ones with a probability that decays as the temperature
// cools linearly to zero.
package annealing

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config collects the caller-supplied pieces of an annealing run.
type Config[X any] struct {
	// Creation produces the starting solution.
	Creation func() X
	// Neighbor produces a random neighbor of a solution without mutating it.
	Neighbor func(X) X
	// Energy is the value to minimize.
	Energy func(X) float64
	// Iterations bounds the trajectory length. Defaults to 10000.
	Iterations int
	// Rand is the random source for acceptance draws. Defaults to a
	// time-seeded source; pass a seeded one for reproducible runs.
	Rand *rand.Rand
}

// Annealer runs simulated annealing for one configuration.
type Annealer[X any] struct {
	cfg Config[X]
}

// New validates cfg and returns an annealer.
func New[X any](cfg Config[X]) (*Annealer[X], error) {
	if cfg.Creation == nil {
		return nil, errors.New("the creation function cannot be nil")
	}
	if cfg.Neighbor == nil {
		return nil, errors.New("the neighbor function cannot be nil")
	}
	if cfg.Energy == nil {
		return nil, errors.New("the energy function cannot be nil")
	}
	if cfg.Iterations < 0 {
		return nil, errors.New("iterations cannot be negative")
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = 10_000
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Annealer[X]{cfg: cfg}, nil
}

// Run executes the trajectory and returns the lowest-energy solution seen.
// Cancelling ctx stops the run early; the best solution so far is still
// returned.
func (a *Annealer[X]) Run(ctx context.Context) (X, float64) {
	cfg := a.cfg

	current := cfg.Creation()
	currentEnergy := cfg.Energy(current)
	best, bestEnergy := current, currentEnergy

	for k := 0; k < cfg.Iterations && ctx.Err() == nil; k++ {
		temperature := 1.0 - float64(k+1)/float64(cfg.Iterations)

		next := cfg.Neighbor(current)
		nextEnergy := cfg.Energy(next)
		if accept(currentEnergy, nextEnergy, temperature, cfg.Rand) {
			current, currentEnergy = next, nextEnergy
		}
		if currentEnergy < bestEnergy {
			best, bestEnergy = current, currentEnergy
		}
	}
	return best, bestEnergy
}

// accept implements the Metropolis criterion: improving moves always pass,
// worsening moves pass with probability exp(-dE/t).
func accept(currentEnergy, nextEnergy, temperature float64, rng *rand.Rand) bool {
	if nextEnergy < currentEnergy {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return rng.Float64() < math.Exp((currentEnergy-nextEnergy)/temperature)
}
