package problems

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/cwbudde/minsearch/genetic"
)

// tsp is a travelling-salesman instance over randomly placed cities.
// Genomes are comma-separated city permutations; the tour length (closing
// back to the first city) is minimized.
type tsp struct {
	cities int
}

func init() {
	register(&tsp{cities: 20})
}

func (p *tsp) Name() string { return "tsp" }

func (p *tsp) Description() string {
	return fmt.Sprintf("travelling salesman over %d randomly placed cities", p.cities)
}

func (p *tsp) Run(ctx context.Context, params RunParams, onProgress func(Progress)) (*Result, error) {
	params = params.withDefaults(400, 200, 0.1, 0.6, 0.3)
	for _, seed := range params.FirstGeneration {
		if _, err := p.parse(seed); err != nil {
			return nil, err
		}
	}

	rng := newRand(params.Seed)

	xs := make([]float64, p.cities)
	ys := make([]float64, p.cities)
	for i := 0; i < p.cities; i++ {
		xs[i] = rng.Float64() * 100
		ys[i] = rng.Float64() * 100
	}
	distances := make([][]float64, p.cities)
	for i := range distances {
		distances[i] = make([]float64, p.cities)
		for j := range distances[i] {
			distances[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
		}
	}

	configure := func(b *genetic.ConfigBuilder[string]) {
		b.Creation(func() string {
			tour := rng.Perm(p.cities)
			return encodeTour(tour)
		})
		b.Crossover(func(a, b string) string {
			return encodeTour(orderCrossover(mustDecode(a), mustDecode(b), rng))
		})
		b.Mutation(func(s string) string {
			tour := mustDecode(s)
			i, j := rng.Intn(len(tour)), rng.Intn(len(tour))
			tour[i], tour[j] = tour[j], tour[i]
			return encodeTour(tour)
		})
		b.Minimize(func(s string) float64 {
			tour := mustDecode(s)
			length := 0.0
			for i := range tour {
				length += distances[tour[i]][tour[(i+1)%len(tour)]]
			}
			return length
		})
		b.FirstGeneration(params.FirstGeneration...)
	}

	return runGA(ctx, p.Name(), params, rng, func(s string) string { return s }, configure, onProgress)
}

// parse decodes and validates a permutation genome.
func (p *tsp) parse(genome string) ([]int, error) {
	parts := strings.Split(genome, ",")
	if len(parts) != p.cities {
		return nil, fmt.Errorf("tsp genome must list %d cities but listed %d", p.cities, len(parts))
	}
	tour := make([]int, len(parts))
	seen := make(map[int]bool, len(parts))
	for i, part := range parts {
		city, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("tsp genome entry %q is not a city index: %w", part, err)
		}
		if city < 0 || city >= p.cities || seen[city] {
			return nil, fmt.Errorf("tsp genome %q is not a permutation of 0..%d", genome, p.cities-1)
		}
		seen[city] = true
		tour[i] = city
	}
	return tour, nil
}

func encodeTour(tour []int) string {
	parts := make([]string, len(tour))
	for i, city := range tour {
		parts[i] = strconv.Itoa(city)
	}
	return strings.Join(parts, ",")
}

// mustDecode decodes a genome produced by encodeTour. Operators only ever
// see genomes that already passed validation.
func mustDecode(genome string) []int {
	parts := strings.Split(genome, ",")
	tour := make([]int, len(parts))
	for i, part := range parts {
		city, err := strconv.Atoi(part)
		if err != nil {
			panic(fmt.Sprintf("corrupt tsp genome %q: %v", genome, err))
		}
		tour[i] = city
	}
	return tour
}

// orderCrossover copies a random segment of parent a and fills the remaining
// positions with b's cities in b's visiting order, yielding a valid
// permutation.
func orderCrossover(a, b []int, rng *rand.Rand) []int {
	n := len(a)
	start := rng.Intn(n)
	end := start + rng.Intn(n-start)

	child := make([]int, n)
	for i := range child {
		child[i] = -1
	}
	inSegment := make(map[int]bool, end-start+1)
	for i := start; i <= end; i++ {
		child[i] = a[i]
		inSegment[a[i]] = true
	}

	next := 0
	for _, city := range b {
		if inSegment[city] {
			continue
		}
		for child[next] != -1 {
			next++
		}
		child[next] = city
	}
	return child
}
