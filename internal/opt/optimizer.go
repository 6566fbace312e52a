// Package opt provides a common interface over the continuous black-box
// minimizers available to the bench command: the external mayfly swarm
// optimizer and adapters over this module's pattern search and simulated
// annealing.
package opt

// Optimizer is a derivative-free minimizer over a box-bounded parameter
// space.
type Optimizer interface {
	// Run minimizes eval over the box [lower, upper] of the given
	// dimensionality and returns the best parameters and their cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
