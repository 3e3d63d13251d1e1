package evo

import (
	"slices"
	"sort"

	"evokit/internal/population"
)

// Proposal is the outcome of one operator applied to one group within a
// stage. Claims are the stage input slots the group covered; Identity marks
// a proposal that left its claims untouched.
type Proposal struct {
	Operator  string
	Order     int
	Claims    []int
	Offspring []*population.Individual
	Identity  bool
}

func (p Proposal) anchor() int {
	if len(p.Claims) == 0 {
		return -1
	}
	return slices.Min(p.Claims)
}

// Strict rejects any slot changed by more than one operator.
type Strict struct{}

func (Strict) Descriptor() Descriptor {
	return Descriptor{Name: "strict", Family: FamilyClash, Arity: WholePopulation}
}

func (Strict) Resolve(input []*population.Individual, proposals []Proposal) ([]Proposal, error) {
	owner := make(map[int]int)
	for i, p := range proposals {
		if p.Identity {
			continue
		}
		for _, slot := range p.Claims {
			j, taken := owner[slot]
			if !taken {
				owner[slot] = i
				continue
			}
			if proposals[j].Order != p.Order {
				return nil, unresolved(input, slot, proposals[j], p)
			}
		}
	}
	return proposals, nil
}

// Priority accepts, for every contested slot, the proposal whose operator
// appears first in Order. Operators missing from Order rank last; two
// operators of equal rank that collide are unresolved.
type Priority struct {
	Order []string
}

func (Priority) Descriptor() Descriptor {
	return Descriptor{Name: "priority", Family: FamilyClash, Arity: WholePopulation}
}

func (a Priority) Resolve(input []*population.Individual, proposals []Proposal) ([]Proposal, error) {
	return greedy(input, proposals, func(p Proposal) int {
		if i := slices.Index(a.Order, p.Operator); i >= 0 {
			return i
		}
		return len(a.Order)
	})
}

// FirstWins accepts, for every contested slot, the operator configured
// earliest in the stage.
type FirstWins struct{}

func (FirstWins) Descriptor() Descriptor {
	return Descriptor{Name: "first_wins", Family: FamilyClash, Arity: WholePopulation}
}

func (FirstWins) Resolve(input []*population.Individual, proposals []Proposal) ([]Proposal, error) {
	return greedy(input, proposals, func(p Proposal) int { return p.Order })
}

// Merge accepts every proposal; a contested slot contributes the offspring
// of all operators that claimed it.
type Merge struct{}

func (Merge) Descriptor() Descriptor {
	return Descriptor{Name: "merge", Family: FamilyClash, Arity: WholePopulation}
}

func (Merge) Resolve(_ []*population.Individual, proposals []Proposal) ([]Proposal, error) {
	return proposals, nil
}

func greedy(input []*population.Individual, proposals []Proposal, rank func(Proposal) int) ([]Proposal, error) {
	idx := make([]int, len(proposals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rank(proposals[idx[a]]) < rank(proposals[idx[b]])
	})

	owner := make(map[int]int)
	accepted := make([]bool, len(proposals))
	for _, i := range idx {
		p := proposals[i]
		if p.Identity {
			accepted[i] = true
			continue
		}
		ok := true
		for _, slot := range p.Claims {
			j, taken := owner[slot]
			if !taken || proposals[j].Order == p.Order {
				continue
			}
			if rank(proposals[j]) == rank(p) {
				return nil, unresolved(input, slot, proposals[j], p)
			}
			ok = false
			break
		}
		if !ok {
			continue
		}
		accepted[i] = true
		for _, slot := range p.Claims {
			if _, taken := owner[slot]; !taken {
				owner[slot] = i
			}
		}
	}

	out := make([]Proposal, 0, len(proposals))
	for i, p := range proposals {
		if accepted[i] {
			out = append(out, p)
		}
	}
	return out, nil
}

func unresolved(input []*population.Individual, slot int, a, b Proposal) error {
	id := ""
	if slot >= 0 && slot < len(input) {
		id = input[slot].ID()
	}
	return &ClashUnresolvedError{Slot: slot, IndividualID: id, Operators: []string{a.Operator, b.Operator}}
}
