package genetic

import (
	"strings"
	"testing"
	"time"
)

// validBuilder returns a builder with every required field set.
func validBuilder(t *testing.T) *ConfigBuilder[string] {
	t.Helper()
	return NewConfigBuilder[string]().
		MaxGenerations(10).
		Creation(func() string { return "x" }).
		Crossover(func(a, b string) string { return a }).
		Mutation(func(s string) string { return s }).
		Maximize(func(s string) float64 { return float64(len(s)) })
}

func TestConfigBuilderValid(t *testing.T) {
	cfg, err := validBuilder(t).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.PopulationSize() != 100 {
		t.Fatalf("Default population size was %d, want 100", cfg.PopulationSize())
	}
	if cfg.MaxGenerations() != 10 {
		t.Fatalf("MaxGenerations was %d, want 10", cfg.MaxGenerations())
	}
}

func TestConfigBuilderInvalidNumericBounds(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*ConfigBuilder[string]) *ConfigBuilder[string]
	}{
		{"population too small", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.PopulationSize(1) }},
		{"population negative", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.PopulationSize(-5) }},
		{"survival rate zero", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.SurvivalRate(0) }},
		{"survival rate one", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.SurvivalRate(1) }},
		{"crossover rate negative", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.CrossoverRate(-0.2) }},
		{"mutation rate above one", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.MutationRate(1.5) }},
		{"max generations negative", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.MaxGenerations(-1) }},
		{"max duration zero", func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.MaxDuration(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.apply(validBuilder(t)).Build(); err == nil {
				t.Fatal("Expected a validation error")
			}
		})
	}
}

func TestConfigBuilderMissingOperators(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Config[string], error)
		want  string
	}{
		{
			"missing creation",
			func() (Config[string], error) {
				return NewConfigBuilder[string]().
					MaxGenerations(1).
					Crossover(func(a, b string) string { return a }).
					Mutation(func(s string) string { return s }).
					Maximize(func(s string) float64 { return 0 }).
					Build()
			},
			"creation",
		},
		{
			"missing crossover",
			func() (Config[string], error) {
				return NewConfigBuilder[string]().
					MaxGenerations(1).
					Creation(func() string { return "x" }).
					Mutation(func(s string) string { return s }).
					Maximize(func(s string) float64 { return 0 }).
					Build()
			},
			"crossover",
		},
		{
			"missing mutation",
			func() (Config[string], error) {
				return NewConfigBuilder[string]().
					MaxGenerations(1).
					Creation(func() string { return "x" }).
					Crossover(func(a, b string) string { return a }).
					Maximize(func(s string) float64 { return 0 }).
					Build()
			},
			"mutation",
		},
		{
			"missing fitness",
			func() (Config[string], error) {
				return NewConfigBuilder[string]().
					MaxGenerations(1).
					Creation(func() string { return "x" }).
					Crossover(func(a, b string) string { return a }).
					Mutation(func(s string) string { return s }).
					Build()
			},
			"fitness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigBuilderRequiresTerminationCriterion(t *testing.T) {
	_, err := NewConfigBuilder[string]().
		Creation(func() string { return "x" }).
		Crossover(func(a, b string) string { return a }).
		Mutation(func(s string) string { return s }).
		Maximize(func(s string) float64 { return 0 }).
		Build()
	if err == nil {
		t.Fatal("Expected an error when no termination criterion is configured")
	}

	// Any single criterion is enough.
	for name, apply := range map[string]func(*ConfigBuilder[string]) *ConfigBuilder[string]{
		"max generations": func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.MaxGenerations(5) },
		"max duration":    func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.MaxDuration(time.Second) },
		"stop criterion":  func(b *ConfigBuilder[string]) *ConfigBuilder[string] { return b.StopCriterion(func(string) bool { return true }) },
	} {
		b := NewConfigBuilder[string]().
			Creation(func() string { return "x" }).
			Crossover(func(a, b string) string { return a }).
			Mutation(func(s string) string { return s }).
			Maximize(func(s string) float64 { return 0 })
		if _, err := apply(b).Build(); err != nil {
			t.Fatalf("Build with %s failed: %v", name, err)
		}
	}
}

func TestConfigBuilderFirstGenerationTooLarge(t *testing.T) {
	b := validBuilder(t).PopulationSize(2)
	b.FirstGeneration("a", "b", "c")
	if _, err := b.Build(); err == nil {
		t.Fatal("Expected an error for an oversized first generation")
	}
}

func TestConfigBuilderFirstGenerationDeduplicates(t *testing.T) {
	b := validBuilder(t).PopulationSize(3)
	b.FirstGeneration("a", "b", "a", "b", "a")
	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(cfg.firstGeneration) != 2 {
		t.Fatalf("First generation kept %d entries, want 2", len(cfg.firstGeneration))
	}
}

func TestConfigBuilderBuildTwice(t *testing.T) {
	b := validBuilder(t)
	if _, err := b.Build(); err != nil {
		t.Fatalf("First Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("Second Build should have failed")
	}
}
