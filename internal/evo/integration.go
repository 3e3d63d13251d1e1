package evo

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"evokit/internal/genome"
	"evokit/internal/population"
)

func fill(out []*population.Individual, from []*population.Individual, target int, skip map[*population.Individual]bool) []*population.Individual {
	for _, ind := range from {
		if len(out) >= target {
			break
		}
		if skip[ind] {
			continue
		}
		out = append(out, ind)
	}
	return out
}

func shortfall(name string, have, target int) error {
	return configError(name, "only %d candidates for a population of %d and no fallback configured", have, target)
}

// OffspringFirst replaces the generation with the candidates. When
// RetainParents is set, missing places are filled with current members in
// order.
type OffspringFirst struct {
	RetainParents bool
}

func (OffspringFirst) Descriptor() Descriptor {
	return Descriptor{Name: "offspring_first", Family: FamilyIntegration, Arity: WholePopulation}
}

func (o OffspringFirst) Integrate(_ context.Context, _ *Scope, current, candidates []*population.Individual, target int) ([]*population.Individual, error) {
	out := fill(make([]*population.Individual, 0, target), candidates, target, nil)
	if len(out) < target && o.RetainParents {
		out = fill(out, current, target, nil)
	}
	if len(out) < target {
		return nil, shortfall("offspring_first", len(out), target)
	}
	return out, nil
}

// Elitist carries the Elites fittest current members over unchanged and
// fills the rest with candidates.
type Elitist struct {
	Elites        int
	RetainParents bool
}

func (Elitist) Descriptor() Descriptor {
	return Descriptor{Name: "elitist", Family: FamilyIntegration, Arity: WholePopulation}
}

func (e Elitist) Integrate(ctx context.Context, scope *Scope, current, candidates []*population.Individual, target int) ([]*population.Individual, error) {
	if e.Elites < 0 || e.Elites > target || e.Elites > len(current) {
		return nil, configError("elitist.elites", "%d elites for a population of %d", e.Elites, min(target, len(current)))
	}
	if err := scope.Evaluate(ctx, current); err != nil {
		return nil, err
	}
	fitness, err := fitnessOf(current)
	if err != nil {
		return nil, err
	}
	eliteIdx := ranking(fitness)[:e.Elites]
	slices.Sort(eliteIdx)

	out := make([]*population.Individual, 0, target)
	elites := make(map[*population.Individual]bool, e.Elites)
	for _, i := range eliteIdx {
		out = append(out, current[i])
		elites[current[i]] = true
	}
	out = fill(out, candidates, target, nil)
	if len(out) < target && e.RetainParents {
		out = fill(out, current, target, elites)
	}
	if len(out) < target {
		return nil, shortfall("elitist", len(out), target)
	}
	return out, nil
}

// SteadyState pools current members and candidates and keeps the target
// fittest, best first. Ties favour current members, then earlier entries.
// With OffspringOnly the current members are left out of the pool.
type SteadyState struct {
	OffspringOnly bool
}

func (SteadyState) Descriptor() Descriptor {
	return Descriptor{Name: "steady_state", Family: FamilyIntegration, Arity: WholePopulation}
}

func (s SteadyState) Integrate(ctx context.Context, scope *Scope, current, candidates []*population.Individual, target int) ([]*population.Individual, error) {
	if s.OffspringOnly {
		current = nil
	}
	pool := make([]*population.Individual, 0, len(current)+len(candidates))
	seen := make(map[*population.Individual]bool, cap(pool))
	for _, ind := range slices.Concat(current, candidates) {
		if seen[ind] {
			continue
		}
		seen[ind] = true
		pool = append(pool, ind)
	}
	if len(pool) < target {
		return nil, shortfall("steady_state", len(pool), target)
	}
	if err := scope.Evaluate(ctx, pool); err != nil {
		return nil, err
	}
	fitness, err := fitnessOf(pool)
	if err != nil {
		return nil, err
	}
	out := make([]*population.Individual, 0, target)
	for _, i := range ranking(fitness)[:target] {
		out = append(out, pool[i])
	}
	return out, nil
}

// Crowding lets each candidate replace the most similar of Factor randomly
// sampled current members. The population keeps its order and size.
type Crowding struct {
	Factor int
}

func (Crowding) Descriptor() Descriptor {
	return Descriptor{Name: "crowding", Family: FamilyIntegration, Arity: WholePopulation}
}

func (c Crowding) Integrate(_ context.Context, scope *Scope, current, candidates []*population.Individual, target int) ([]*population.Individual, error) {
	if c.Factor < 0 {
		return nil, configError("crowding.factor", "must be >= 0, got %d", c.Factor)
	}
	if len(current) != target {
		return nil, configError("crowding", "current size %d differs from target %d", len(current), target)
	}
	factor := c.Factor
	if factor == 0 || factor > len(current) {
		factor = len(current)
	}
	out := slices.Clone(current)
	for _, cand := range candidates {
		metric, ok := cand.Genome().(genome.Metric)
		if !ok {
			return nil, fmt.Errorf("%w: crowding requires a metric genome, got %T", genome.ErrGenomeMismatch, cand.Genome())
		}
		sample := scope.Rand.Perm(len(out))[:factor]
		sort.Ints(sample)
		nearest, best := -1, 0.0
		for _, i := range sample {
			d, err := metric.Distance(out[i].Genome())
			if err != nil {
				return nil, err
			}
			if nearest < 0 || d < best {
				nearest, best = i, d
			}
		}
		out[nearest] = cand
	}
	return out, nil
}
