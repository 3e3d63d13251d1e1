package evo

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"evokit/internal/genome"
)

func TestCrossoverFixedCut(t *testing.T) {
	parents := unscored(genome.Ints{1, 0, 1, 0}, genome.Ints{0, 1, 0, 1})
	parents[0].SetFitness(2)
	parents[1].SetFitness(2)

	children, err := Crossover{Cuts: []int{2}}.Reproduce(context.Background(), testScope(1), parents)
	if err != nil {
		t.Fatalf("reproduce: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if diff := cmp.Diff(genome.Ints{1, 0, 0, 1}, children[0].Genome()); diff != "" {
		t.Fatalf("first child mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(genome.Ints{0, 1, 1, 0}, children[1].Genome()); diff != "" {
		t.Fatalf("second child mismatch (-want +got):\n%s", diff)
	}
	for _, c := range children {
		if c.Valid() {
			t.Fatal("offspring must start unevaluated")
		}
		if !slices.Contains(c.Lineage(), parents[0].ID()) || !slices.Contains(c.Lineage(), parents[1].ID()) {
			t.Fatalf("offspring lineage incomplete: %v", c.Lineage())
		}
	}
	if !parents[0].Genome().Equal(genome.Ints{1, 0, 1, 0}) || !parents[1].Genome().Equal(genome.Ints{0, 1, 0, 1}) {
		t.Fatal("parents were modified")
	}
	if !parents[0].Valid() || !parents[1].Valid() {
		t.Fatal("parents lost their fitness cache")
	}
}

func TestCrossoverTwoCutsSwapsMiddleSegment(t *testing.T) {
	parents := unscored(genome.Ints{1, 1, 1, 1, 1}, genome.Ints{0, 0, 0, 0, 0})
	children, err := Crossover{Cuts: []int{4, 1}}.Reproduce(context.Background(), testScope(1), parents)
	if err != nil {
		t.Fatalf("reproduce: %v", err)
	}
	if diff := cmp.Diff(genome.Ints{1, 0, 0, 0, 1}, children[0].Genome()); diff != "" {
		t.Fatalf("child mismatch (-want +got):\n%s", diff)
	}
}

func TestCrossoverSkippedByProbabilityCopiesParents(t *testing.T) {
	parents := unscored(genome.Ints{1, 1}, genome.Ints{0, 0})
	parents[0].SetFitness(2)
	parents[1].SetFitness(0)

	children, err := Crossover{Probability: ptr(0.0)}.Reproduce(context.Background(), testScope(1), parents)
	if err != nil {
		t.Fatalf("reproduce: %v", err)
	}
	for i, c := range children {
		if c == parents[i] || c.ID() == parents[i].ID() {
			t.Fatal("copies must carry a new identity")
		}
		if !c.Genome().Equal(parents[i].Genome()) {
			t.Fatalf("copy %d differs from its parent", i)
		}
		if f, ok := c.Fitness(); !ok || f != fitnesses(parents)[i] {
			t.Fatalf("copy %d should keep the valid cache, got %v %v", i, f, ok)
		}
	}
}

func TestCrossoverRejectsBadCuts(t *testing.T) {
	parents := unscored(genome.Ints{1, 1}, genome.Ints{0, 0})
	_, err := Crossover{Cuts: []int{2}}.Reproduce(context.Background(), testScope(1), parents)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = Crossover{}.Reproduce(context.Background(), testScope(1), unscored(genome.Ints{1, 1}, genome.Floats{0, 0}))
	if !errors.Is(err, genome.ErrGenomeMismatch) {
		t.Fatalf("expected genome mismatch, got %v", err)
	}
}

func TestDiscreteDealsGenesEvenly(t *testing.T) {
	parents := unscored(genome.Ints{0, 0, 0, 0}, genome.Ints{1, 1, 1, 1})
	children, err := Discrete{}.Reproduce(context.Background(), testScope(4), parents)
	if err != nil {
		t.Fatalf("reproduce: %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("expected one child, got %d", len(children))
	}
	ones := 0
	for _, v := range children[0].Genome().(genome.Ints) {
		ones += v
	}
	if ones != 2 {
		t.Fatalf("expected each parent to contribute two genes, got %v", children[0].Genome())
	}
}

func TestBlendMixesParents(t *testing.T) {
	parents := unscored(genome.Floats{0, 4}, genome.Floats{4, 0})
	children, err := Blend{Alpha: ptr(0.25)}.Reproduce(context.Background(), testScope(1), parents)
	if err != nil {
		t.Fatalf("reproduce: %v", err)
	}
	if diff := cmp.Diff(genome.Floats{3, 1}, children[0].Genome()); diff != "" {
		t.Fatalf("first child mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(genome.Floats{1, 3}, children[1].Genome()); diff != "" {
		t.Fatalf("second child mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneKeepsFitness(t *testing.T) {
	parents := scored(7)
	children, err := Clone{}.Reproduce(context.Background(), testScope(1), parents)
	if err != nil {
		t.Fatalf("reproduce: %v", err)
	}
	if f, ok := children[0].Fitness(); !ok || f != 7 || children[0] == parents[0] {
		t.Fatalf("unexpected clone: fitness=%v valid=%v", f, ok)
	}
}
