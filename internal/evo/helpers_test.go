package evo

import (
	"context"
	"math/rand"
	"sync/atomic"

	"evokit/internal/evaluation"
	"evokit/internal/genome"
	"evokit/internal/population"
)

func scored(fitness ...float64) []*population.Individual {
	out := make([]*population.Individual, len(fitness))
	for i, f := range fitness {
		out[i] = population.NewIndividual(genome.Ints{i})
		out[i].SetFitness(f)
	}
	return out
}

func unscored(genomes ...genome.Genome) []*population.Individual {
	out := make([]*population.Individual, len(genomes))
	for i, g := range genomes {
		out[i] = population.NewIndividual(g)
	}
	return out
}

func testScope(seed int64) *Scope {
	return NewScope(rand.New(rand.NewSource(seed)), 1, evaluation.Func(countOnes))
}

func countOnes(_ context.Context, g genome.Genome) (float64, error) {
	total := 0.0
	switch v := g.(type) {
	case genome.Bits:
		for _, b := range v {
			if b {
				total++
			}
		}
	case genome.Ints:
		for _, x := range v {
			total += float64(x)
		}
	case genome.Floats:
		for _, x := range v {
			total += x
		}
	}
	return total, nil
}

// countingEvaluator counts calls and fails once failAfter calls have been
// made, when failAfter is positive.
type countingEvaluator struct {
	calls     atomic.Int32
	failAfter int32
	err       error
}

func (c *countingEvaluator) Evaluate(ctx context.Context, g genome.Genome) (float64, error) {
	n := c.calls.Add(1)
	if c.failAfter > 0 && n > c.failAfter {
		return 0, c.err
	}
	return countOnes(ctx, g)
}

func bitSeed(n, length int, seed int64) []*population.Individual {
	rng := rand.New(rand.NewSource(seed))
	genomes, err := genome.Generate(n, genome.RandomBits(length), rng)
	if err != nil {
		panic(err)
	}
	return unscored(genomes...)
}

func ids(inds []*population.Individual) []string {
	out := make([]string, len(inds))
	for i, ind := range inds {
		out[i] = ind.ID()
	}
	return out
}

func fitnesses(inds []*population.Individual) []float64 {
	out := make([]float64, len(inds))
	for i, ind := range inds {
		out[i], _ = ind.Fitness()
	}
	return out
}

func ptr[T any](v T) *T { return &v }
