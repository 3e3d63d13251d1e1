package evo

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"evokit/internal/population"
)

func fitnessOf(group []*population.Individual) ([]float64, error) {
	out := make([]float64, len(group))
	for i, ind := range group {
		f, ok := ind.Fitness()
		if !ok {
			return nil, fmt.Errorf("%w: individual %s", ErrUnevaluated, ind.ID())
		}
		out[i] = f
	}
	return out, nil
}

// ranking returns group indices ordered by fitness, best first. Ties keep
// group order.
func ranking(fitness []float64) []int {
	idx := make([]int, len(fitness))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return fitness[idx[a]] > fitness[idx[b]]
	})
	return idx
}

// Truncation keeps the Keep fittest members of every group, emitted in group
// order.
type Truncation struct {
	Keep int
	Over Iteration
}

func (s Truncation) iteration() Iteration {
	if s.Over == nil {
		return Whole{}
	}
	return s.Over
}

func (s Truncation) Descriptor() Descriptor {
	return Descriptor{Name: "truncation", Family: FamilySelection, Arity: s.iteration().Arity()}
}

func (s Truncation) Iteration() Iteration { return s.iteration() }

func (s Truncation) Select(_ context.Context, _ *Scope, group []*population.Individual) ([]*population.Individual, error) {
	if s.Keep <= 0 {
		return nil, configError("truncation.keep", "must be > 0, got %d", s.Keep)
	}
	if s.Keep > len(group) {
		return nil, &InsufficientPopulationError{Operator: "truncation", Arity: s.Keep, Size: len(group)}
	}
	fitness, err := fitnessOf(group)
	if err != nil {
		return nil, err
	}
	kept := ranking(fitness)[:s.Keep]
	slices.Sort(kept)
	out := make([]*population.Individual, 0, len(kept))
	for _, i := range kept {
		out = append(out, group[i])
	}
	return out, nil
}

// Tournament draws Count batches of Size distinct members and keeps the
// fittest of each. The earliest member wins ties.
type Tournament struct {
	Size  int
	Count int
}

func (s Tournament) Descriptor() Descriptor {
	return Descriptor{Name: "tournament", Family: FamilySelection, Arity: s.Size}
}

func (s Tournament) Iteration() Iteration {
	return Batches{Size: s.Size, Total: s.Count}
}

func (s Tournament) Select(_ context.Context, _ *Scope, group []*population.Individual) ([]*population.Individual, error) {
	fitness, err := fitnessOf(group)
	if err != nil {
		return nil, err
	}
	return []*population.Individual{group[ranking(fitness)[0]]}, nil
}

// Roulette samples Count members with probability proportional to fitness.
// Negative fitness is shifted so the weakest member still carries a small
// weight.
type Roulette struct {
	Count int
}

func (s Roulette) Descriptor() Descriptor {
	return Descriptor{Name: "roulette", Family: FamilySelection, Arity: WholePopulation}
}

func (Roulette) Iteration() Iteration { return Whole{} }

func (s Roulette) Select(_ context.Context, scope *Scope, group []*population.Individual) ([]*population.Individual, error) {
	if s.Count < 0 {
		return nil, configError("roulette.count", "must be >= 0, got %d", s.Count)
	}
	fitness, err := fitnessOf(group)
	if err != nil {
		return nil, err
	}
	minimum := slices.Min(fitness)
	weights := make([]float64, len(fitness))
	for i, f := range fitness {
		weights[i] = f
		if minimum <= 0 {
			weights[i] = f - minimum + 1e-9
		}
	}
	return spin(scope, group, weights, s.Count)
}

// Rank samples Count members by linear rank. Pressure in [1, 2] controls
// how strongly the best member is favoured; zero means 1.5.
type Rank struct {
	Count    int
	Pressure float64
}

func (s Rank) Descriptor() Descriptor {
	return Descriptor{Name: "rank", Family: FamilySelection, Arity: WholePopulation}
}

func (Rank) Iteration() Iteration { return Whole{} }

func (s Rank) Select(_ context.Context, scope *Scope, group []*population.Individual) ([]*population.Individual, error) {
	pressure := s.Pressure
	if pressure == 0 {
		pressure = 1.5
	}
	if pressure < 1 || pressure > 2 {
		return nil, configError("rank.pressure", "must be within [1, 2], got %v", pressure)
	}
	if s.Count < 0 {
		return nil, configError("rank.count", "must be >= 0, got %d", s.Count)
	}
	fitness, err := fitnessOf(group)
	if err != nil {
		return nil, err
	}
	n := len(group)
	weights := make([]float64, n)
	if n == 1 {
		weights[0] = 1
	} else {
		for pos, i := range ranking(fitness) {
			r := float64(n - 1 - pos)
			weights[i] = (2 - pressure) + 2*(pressure-1)*r/float64(n-1)
		}
	}
	return spin(scope, group, weights, s.Count)
}

func spin(scope *Scope, group []*population.Individual, weights []float64, count int) ([]*population.Individual, error) {
	if scope == nil || scope.Rand == nil {
		return nil, configError("selection", "random source is required")
	}
	if count == 0 {
		count = len(group)
	}
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}
	out := make([]*population.Individual, 0, count)
	for range count {
		if total <= 0 {
			out = append(out, group[scope.Rand.Intn(len(group))])
			continue
		}
		target := scope.Rand.Float64() * total
		i := sort.SearchFloat64s(cumulative, target)
		for i < len(cumulative)-1 && cumulative[i] <= target {
			i++
		}
		out = append(out, group[i])
	}
	return out, nil
}
