package evo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"evokit/internal/genome"
	"evokit/internal/population"
)

func TestOffspringFirst(t *testing.T) {
	current := scored(1, 2, 3)
	candidates := scored(7, 8)

	if _, err := (OffspringFirst{}).Integrate(context.Background(), testScope(1), current, candidates, 3); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error without fallback, got %v", err)
	}
	got, err := OffspringFirst{RetainParents: true}.Integrate(context.Background(), testScope(1), current, candidates, 3)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	want := []*population.Individual{candidates[0], candidates[1], current[0]}
	if diff := cmp.Diff(ids(want), ids(got)); diff != "" {
		t.Fatalf("integration mismatch (-want +got):\n%s", diff)
	}
}

func TestElitistCarriesBestOver(t *testing.T) {
	current := scored(5, 9, 1)
	candidates := scored(2, 3, 4)
	got, err := Elitist{Elites: 1}.Integrate(context.Background(), testScope(1), current, candidates, 3)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if diff := cmp.Diff([]float64{9, 2, 3}, fitnesses(got)); diff != "" {
		t.Fatalf("integration mismatch (-want +got):\n%s", diff)
	}
	if _, err := (Elitist{Elites: 4}).Integrate(context.Background(), testScope(1), current, candidates, 3); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSteadyStateEvaluatesAndTruncates(t *testing.T) {
	current := scored(5, 1)
	candidates := unscored(genome.Ints{3}, genome.Ints{7})
	got, err := SteadyState{}.Integrate(context.Background(), testScope(1), current, candidates, 2)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if diff := cmp.Diff([]float64{7, 5}, fitnesses(got)); diff != "" {
		t.Fatalf("integration mismatch (-want +got):\n%s", diff)
	}
	for _, ind := range got {
		if !ind.Valid() {
			t.Fatal("survivors must be evaluated")
		}
	}
}

func TestSteadyStateOffspringOnlyIgnoresParents(t *testing.T) {
	current := scored(9, 8)
	candidates := unscored(genome.Ints{3}, genome.Ints{7}, genome.Ints{1})
	got, err := SteadyState{OffspringOnly: true}.Integrate(context.Background(), testScope(1), current, candidates, 2)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if diff := cmp.Diff([]float64{7, 3}, fitnesses(got)); diff != "" {
		t.Fatalf("integration mismatch (-want +got):\n%s", diff)
	}
	if _, err := (SteadyState{OffspringOnly: true}).Integrate(context.Background(), testScope(1), current, candidates[:1], 2); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCrowdingReplacesNearest(t *testing.T) {
	current := unscored(genome.Bits{true, true, true}, genome.Bits{false, false, false})
	candidate := unscored(genome.Bits{false, false, true})
	got, err := Crowding{Factor: 2}.Integrate(context.Background(), testScope(1), current, candidate, 2)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if got[0] != current[0] || got[1] != candidate[0] {
		t.Fatalf("expected the all-false member to be replaced, got %v", ids(got))
	}
}
