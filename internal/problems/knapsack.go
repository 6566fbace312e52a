package problems

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/cwbudde/minsearch/genetic"
)

// knapsack is a 0/1 knapsack instance with randomly generated items.
// Genomes are bit strings, one character per item. Valid selections are
// rewarded with their total value plus a fixed prize; overweight selections
// score only by how few items they carry, so the search is pushed back under
// capacity.
type knapsack struct {
	items    int
	capacity float64
}

const knapsackValidPrize = 1000.0

func init() {
	register(&knapsack{items: 40, capacity: 20.0})
}

func (p *knapsack) Name() string { return "knapsack" }

func (p *knapsack) Description() string {
	return fmt.Sprintf("0/1 knapsack with %d random items and capacity %.1f", p.items, p.capacity)
}

func (p *knapsack) Run(ctx context.Context, params RunParams, onProgress func(Progress)) (*Result, error) {
	params = params.withDefaults(300, 100, 0.1, 0.7, 0.2)
	for _, seed := range params.FirstGeneration {
		if err := p.validate(seed); err != nil {
			return nil, err
		}
	}

	rng := newRand(params.Seed)

	// The instance itself comes from the same seeded stream, so a fixed seed
	// pins both the items and the search trajectory.
	weights := make([]float64, p.items)
	values := make([]float64, p.items)
	for i := 0; i < p.items; i++ {
		weights[i] = 0.1 + rng.Float64()*5.9
		values[i] = 0.1 + rng.Float64()*5.9
	}

	configure := func(b *genetic.ConfigBuilder[string]) {
		b.Creation(func() string {
			var sb strings.Builder
			for i := 0; i < p.items; i++ {
				if rng.Intn(2) == 0 {
					sb.WriteByte('0')
				} else {
					sb.WriteByte('1')
				}
			}
			return sb.String()
		})
		b.Crossover(func(a, b string) string {
			bits := []byte(a)
			for i := range bits {
				if rng.Intn(2) == 1 {
					bits[i] = b[i]
				}
			}
			return string(bits)
		})
		b.Mutation(func(s string) string { return flipBit(s, rng) })
		b.Maximize(func(s string) float64 {
			totalWeight, totalValue, picked := 0.0, 0.0, 0
			for i := 0; i < p.items; i++ {
				if s[i] == '1' {
					totalWeight += weights[i]
					totalValue += values[i]
					picked++
				}
			}
			if totalWeight > p.capacity {
				return float64(p.items - picked)
			}
			return totalValue + knapsackValidPrize
		})
		b.FirstGeneration(params.FirstGeneration...)
	}

	return runGA(ctx, p.Name(), params, rng, func(s string) string { return s }, configure, onProgress)
}

func (p *knapsack) validate(genome string) error {
	if len(genome) != p.items {
		return fmt.Errorf("knapsack genome must have %d bits but had %d", p.items, len(genome))
	}
	for i := 0; i < len(genome); i++ {
		if genome[i] != '0' && genome[i] != '1' {
			return fmt.Errorf("knapsack genome must contain only 0 and 1, found %q", genome[i])
		}
	}
	return nil
}

func flipBit(s string, rng *rand.Rand) string {
	bits := []byte(s)
	i := rng.Intn(len(bits))
	if bits[i] == '0' {
		bits[i] = '1'
	} else {
		bits[i] = '0'
	}
	return string(bits)
}
