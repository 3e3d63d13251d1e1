package evo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"evokit/internal/population"
)

// Variation binds a reproduction or mutation operator to the stage runner.
type Variation struct {
	desc  Descriptor
	iter  Iteration
	apply func(ctx context.Context, scope *Scope, group []*population.Individual) ([]*population.Individual, error)
}

func Reproduce(r Reproducer) Variation {
	return Variation{desc: r.Descriptor(), iter: r.Iteration(), apply: r.Reproduce}
}

func Mutate(m Mutator) Variation {
	return Variation{
		desc: m.Descriptor(),
		iter: m.Iteration(),
		apply: func(ctx context.Context, scope *Scope, group []*population.Individual) ([]*population.Individual, error) {
			out := make([]*population.Individual, len(group))
			for i, ind := range group {
				next, err := m.Mutate(ctx, scope, ind)
				if err != nil {
					return nil, err
				}
				if next == nil {
					return nil, fmt.Errorf("mutation %s returned no individual", m.Descriptor().Name)
				}
				out[i] = next
			}
			return out, nil
		},
	}
}

func (v Variation) Descriptor() Descriptor { return v.desc }

func (v Variation) valid() bool { return v.apply != nil && v.iter != nil }

// Stage runs its variations against the same input. Proposals that touch
// the same slot are handed to the arbiter. Slots no operator claimed pass
// through unless DropUnclaimed is set.
type Stage struct {
	Variations    []Variation
	DropUnclaimed bool
}

func (s Stage) run(ctx context.Context, scope *Scope, arbiter Arbiter, input []*population.Individual) ([]*population.Individual, error) {
	touched := make([]bool, len(input))
	var proposals []Proposal
	for order, v := range s.Variations {
		part, err := v.iter.Partition(input, scope.Rand)
		if err != nil {
			return nil, nameOperator(err, v.desc.Name)
		}
		arity := v.iter.Arity()
		for group := range part.All() {
			if arity != WholePopulation && !group.Short && len(group.Members) != arity {
				return nil, &InsufficientPopulationError{Operator: v.desc.Name, Arity: arity, Size: len(group.Members)}
			}
			offspring, err := v.apply(ctx, scope, group.Members)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", v.desc.Name, err)
			}
			proposals = append(proposals, Proposal{
				Operator:  v.desc.Name,
				Order:     order,
				Claims:    group.Slots,
				Offspring: offspring,
				Identity:  sameMembers(offspring, group.Members),
			})
			for _, slot := range group.Slots {
				touched[slot] = true
			}
		}
	}

	accepted, err := arbiter.Resolve(input, proposals)
	if err != nil {
		return nil, err
	}

	changed := make([]bool, len(input))
	byAnchor := make(map[int][]Proposal)
	for _, p := range accepted {
		if p.Identity {
			continue
		}
		for _, slot := range p.Claims {
			changed[slot] = true
		}
		byAnchor[p.anchor()] = append(byAnchor[p.anchor()], p)
	}
	for _, ps := range byAnchor {
		sort.SliceStable(ps, func(a, b int) bool { return ps[a].Order < ps[b].Order })
	}

	out := make([]*population.Individual, 0, len(input))
	for slot, ind := range input {
		for _, p := range byAnchor[slot] {
			out = append(out, p.Offspring...)
		}
		if !changed[slot] && (touched[slot] || !s.DropUnclaimed) {
			out = append(out, ind)
		}
	}
	return out, nil
}

func sameMembers(a, b []*population.Individual) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func nameOperator(err error, name string) error {
	var insufficient *InsufficientPopulationError
	if errors.As(err, &insufficient) && insufficient.Operator == "" {
		insufficient.Operator = name
	}
	return err
}
