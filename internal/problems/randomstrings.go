package problems

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/cwbudde/minsearch/genetic"
)

const stringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,:;-_@#[]{}()!?='\"+*/"

// randomStrings evolves random character strings toward a fixed target
// sentence, minimizing the number of mismatching positions plus the length
// difference. The run stops as soon as the target appears in a population.
type randomStrings struct {
	target string
}

func init() {
	register(&randomStrings{
		target: "The quick brown fox jumps over the lazy dog, twice around the block.",
	})
}

func (p *randomStrings) Name() string { return "randomstrings" }

func (p *randomStrings) Description() string {
	return fmt.Sprintf("evolve a %d-character target sentence from random strings", len(p.target))
}

func (p *randomStrings) Run(ctx context.Context, params RunParams, onProgress func(Progress)) (*Result, error) {
	params = params.withDefaults(500, 300, 0.1, 0.3, 0.7)
	for _, seed := range params.FirstGeneration {
		for _, r := range seed {
			if !strings.ContainsRune(stringAlphabet, r) {
				return nil, fmt.Errorf("seed string %q contains %q, which is outside the alphabet", seed, r)
			}
		}
	}

	rng := newRand(params.Seed)
	randomChar := func() byte { return stringAlphabet[rng.Intn(len(stringAlphabet))] }

	configure := func(b *genetic.ConfigBuilder[string]) {
		b.Creation(func() string {
			length := 1 + rng.Intn(len(p.target))
			var sb strings.Builder
			for i := 0; i < length; i++ {
				sb.WriteByte(randomChar())
			}
			return sb.String()
		})
		b.Crossover(func(a, b string) string { return p.blend(a, b, rng) })
		b.Mutation(func(s string) string { return p.mutate(s, rng, randomChar) })
		b.Minimize(p.distance)
		b.StopCriterion(func(s string) bool { return s == p.target })
		b.FirstGeneration(params.FirstGeneration...)
	}

	return runGA(ctx, p.Name(), params, rng, func(s string) string { return s }, configure, onProgress)
}

// distance counts mismatching positions plus the length difference against
// the target.
func (p *randomStrings) distance(s string) float64 {
	count := len(p.target) - len(s)
	if count < 0 {
		count = -count
	}
	for i := 0; i < min(len(p.target), len(s)); i++ {
		if s[i] != p.target[i] {
			count++
		}
	}
	return float64(count)
}

// blend picks each shared position from a random parent, then extends with
// the longer parent's tail up to a random length between the two.
func (p *randomStrings) blend(a, b string, rng *rand.Rand) string {
	shorter, longer := min(len(a), len(b)), max(len(a), len(b))
	length := shorter
	if shorter != longer {
		length = shorter + rng.Intn(longer-shorter)
	}
	var sb strings.Builder
	i := 0
	for ; i < shorter; i++ {
		if rng.Intn(2) == 0 {
			sb.WriteByte(a[i])
		} else {
			sb.WriteByte(b[i])
		}
	}
	for ; i < length; i++ {
		if i < len(a) {
			sb.WriteByte(a[i])
		} else {
			sb.WriteByte(b[i])
		}
	}
	return sb.String()
}

// mutate adds, removes or replaces one random character.
func (p *randomStrings) mutate(s string, rng *rand.Rand, randomChar func() byte) string {
	if s == "" {
		return string(randomChar())
	}
	switch rng.Intn(3) {
	case 0: // add at the end
		return s + string(randomChar())
	case 1: // remove one
		i := rng.Intn(len(s))
		return s[:i] + s[i+1:]
	default: // replace one
		i := rng.Intn(len(s))
		return s[:i] + string(randomChar()) + s[i+1:]
	}
}
