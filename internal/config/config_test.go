package config

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"evokit/internal/evaluation"
	"evokit/internal/evo"
	"evokit/internal/genome"
)

const minimal = `
name: tiny
seed: 9
population: 8
genome:
  landscape: onemax
  length: 12
selection:
  operator: tournament
  params:
    size: 2
stages:
  - operators:
      - family: reproduction
        operator: crossover
      - family: mutation
        operator: bit_flip
        params:
          rate: 0.1
          iteration:
            kind: random_single
            probability: 0.5
clash:
  operator: priority
  params:
    order: [crossover, bit_flip]
integration:
  operator: elitist
  params:
    elites: 1
termination:
  max_generations: 5
  stagnation: 3
`

func TestParseMinimal(t *testing.T) {
	run, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := Run{
		Name:       "tiny",
		Seed:       9,
		Population: 8,
		Genome:     Genome{Landscape: "onemax", Length: 12},
		Selection:  &Operator{Name: "tournament", Params: map[string]any{"size": 2}},
		Stages: []Stage{{
			Operators: []StageOperator{
				{Family: "reproduction", Operator: Operator{Name: "crossover"}},
				{Family: "mutation", Operator: Operator{Name: "bit_flip", Params: map[string]any{
					"rate":      0.1,
					"iteration": map[string]any{"kind": "random_single", "probability": 0.5},
				}}},
			},
		}},
		Clash:       &Operator{Name: "priority", Params: map[string]any{"order": []any{"crossover", "bit_flip"}}},
		Integration: &Operator{Name: "elitist", Params: map[string]any{"elites": 1}},
		Termination: Termination{MaxGenerations: 5, Stagnation: 3},
	}
	if diff := cmp.Diff(want, run); diff != "" {
		t.Fatalf("unexpected run (-want +got):\n%s", diff)
	}
}

func TestBuildMinimal(t *testing.T) {
	run, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, init, err := run.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Selection.Descriptor().Name != "tournament" {
		t.Fatalf("unexpected selection: %+v", cfg.Selection.Descriptor())
	}
	if len(cfg.Stages) != 1 || len(cfg.Stages[0].Variations) != 2 {
		t.Fatalf("unexpected stages: %+v", cfg.Stages)
	}
	if got := cfg.Stages[0].Variations[1].Descriptor().Name; got != "bit_flip" {
		t.Fatalf("unexpected second variation: %s", got)
	}
	if _, ok := cfg.Clash.(evo.Priority); !ok {
		t.Fatalf("expected priority arbiter, got %T", cfg.Clash)
	}
	if cfg.Seed != 9 || cfg.Termination.MaxGenerations != 5 || cfg.Termination.Stagnation != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	g := init(rand.New(rand.NewSource(1)))
	bits, ok := g.(genome.Bits)
	if !ok || len(bits) != 12 {
		t.Fatalf("unexpected initial genome: %#v", g)
	}
	if _, err := evo.NewProcess(cfg); err != nil {
		t.Fatalf("new process: %v", err)
	}
}

func TestBuildWrapsEvaluator(t *testing.T) {
	run, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	run.Workers = 4
	run.Cache = Cache{Enabled: true, TTL: time.Minute}

	cfg, _, err := run.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	parallel, ok := cfg.Evaluator.(evaluation.Parallel)
	if !ok {
		t.Fatalf("expected parallel evaluator, got %T", cfg.Evaluator)
	}
	if parallel.Workers != 4 {
		t.Fatalf("unexpected workers: %d", parallel.Workers)
	}
	if _, ok := parallel.Evaluator.(*evaluation.Cached); !ok {
		t.Fatalf("expected cached inner evaluator, got %T", parallel.Evaluator)
	}
}

func TestBuildTargetOptimum(t *testing.T) {
	run, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	run.Termination.TargetOptimum = true

	cfg, _, err := run.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Termination.TargetFitness == nil || *cfg.Termination.TargetFitness != 12 {
		t.Fatalf("expected target fitness 12, got %v", cfg.Termination.TargetFitness)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(string) string
		field string
	}{
		{
			name:  "missing population",
			edit:  func(s string) string { return strings.Replace(s, "population: 8\n", "", 1) },
			field: "population",
		},
		{
			name:  "zero length",
			edit:  func(s string) string { return strings.Replace(s, "length: 12", "length: 0", 1) },
			field: "genome.length",
		},
		{
			name:  "unknown landscape",
			edit:  func(s string) string { return strings.Replace(s, "landscape: onemax", "landscape: everest", 1) },
			field: "genome.landscape",
		},
		{
			name:  "selection family in stage",
			edit:  func(s string) string { return strings.Replace(s, "family: mutation", "family: selection", 1) },
			field: "family",
		},
		{
			name:  "missing selection",
			edit:  func(s string) string { return strings.Replace(s, "selection:\n  operator: tournament\n  params:\n    size: 2\n", "", 1) },
			field: "selection",
		},
		{
			name:  "negative generations",
			edit:  func(s string) string { return strings.Replace(s, "max_generations: 5", "max_generations: -1", 1) },
			field: "termination.max_generations",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.edit(minimal)))
			if !errors.Is(err, evo.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got: %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("error %q does not name %q", err, tc.field)
			}
		})
	}
}

const strategyRun = `
population: 3
strategy: (3/2,6)^4
genome:
  landscape: sphere
  length: 3
`

func TestBuildStrategy(t *testing.T) {
	run, err := Parse([]byte(strategyRun))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, _, err := run.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Selection.Descriptor().Name != "truncation" || cfg.Integration.Descriptor().Name != "steady_state" {
		t.Fatalf("unexpected pipeline %s/%s", cfg.Selection.Descriptor().Name, cfg.Integration.Descriptor().Name)
	}
	if len(cfg.Stages) != 2 || cfg.Stages[0].Variations[0].Descriptor().Name != "discrete" {
		t.Fatalf("expected recombination then default mutation, got %d stages", len(cfg.Stages))
	}
	if cfg.TargetSize != 3 || cfg.Termination.MaxGenerations != 4 {
		t.Fatalf("unexpected target %d and limit %d", cfg.TargetSize, cfg.Termination.MaxGenerations)
	}
	if _, err := evo.NewProcess(cfg); err != nil {
		t.Fatalf("new process: %v", err)
	}
}

func TestParseRejectsStrategyConflicts(t *testing.T) {
	cases := map[string]string{
		"population": strings.Replace(strategyRun, "population: 3", "population: 4", 1),
		"strategy":   strings.Replace(strategyRun, "(3/2,6)^4", "(3/2,2)", 1),
		"Selection":  strategyRun + "selection:\n  operator: tournament\n",
	}
	for field, doc := range cases {
		_, err := Parse([]byte(doc))
		if !errors.Is(err, evo.ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got: %v", field, err)
		}
		if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(field)) {
			t.Fatalf("error %q does not name %q", err, field)
		}
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(minimal + "mutation_rate: 0.5\n"))
	if err == nil || !strings.Contains(err.Error(), "mutation_rate") {
		t.Fatalf("expected unknown field error, got: %v", err)
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, evo.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got: %v", err)
	}
}

func TestBuildRejectsUnknownOperator(t *testing.T) {
	run, err := Parse([]byte(strings.Replace(minimal, "operator: elitist", "operator: genocide", 1)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = run.Build()
	if !errors.Is(err, evo.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got: %v", err)
	}
}

func TestTargetOptimumExclusiveWithTargetFitness(t *testing.T) {
	doc := strings.Replace(minimal, "stagnation: 3", "stagnation: 3\n  target_optimum: true\n  target_fitness: 10", 1)
	if _, err := Parse([]byte(doc)); !errors.Is(err, evo.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got: %v", err)
	}
}

func TestLoadExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no example configs found")
	}
	for _, path := range paths {
		run, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		cfg, _, err := run.Build()
		if err != nil {
			t.Fatalf("build %s: %v", path, err)
		}
		if _, err := evo.NewProcess(cfg); err != nil {
			t.Fatalf("new process %s: %v", path, err)
		}
	}
}
