package evo

import (
	"context"
	"math/rand"

	"evokit/internal/evaluation"
	"evokit/internal/population"
)

type Family int

const (
	FamilySelection Family = iota + 1
	FamilyReproduction
	FamilyMutation
	FamilyIntegration
	FamilyClash
)

func (f Family) String() string {
	switch f {
	case FamilySelection:
		return "selection"
	case FamilyReproduction:
		return "reproduction"
	case FamilyMutation:
		return "mutation"
	case FamilyIntegration:
		return "integration"
	case FamilyClash:
		return "clash"
	default:
		return "unknown"
	}
}

// ParseFamily is the inverse of Family.String.
func ParseFamily(name string) (Family, error) {
	for f := FamilySelection; f <= FamilyClash; f++ {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, configError("family", "unknown operator family %q", name)
}

// WholePopulation is the arity of operators that consume the population as one group.
const WholePopulation = -1

// Descriptor tags an operator with its name, family and arity.
type Descriptor struct {
	Name   string
	Family Family
	Arity  int
}

type Operator interface {
	Descriptor() Descriptor
}

// Scope carries the per-generation state an operator may use: the process
// owned random source and the evaluation boundary.
type Scope struct {
	Rand       *rand.Rand
	Generation int

	evaluator   evaluation.Evaluator
	evaluations int
}

func NewScope(rng *rand.Rand, generation int, evaluator evaluation.Evaluator) *Scope {
	return &Scope{Rand: rng, Generation: generation, evaluator: evaluator}
}

// Evaluate blocks until every individual in inds has a valid fitness cache.
func (s *Scope) Evaluate(ctx context.Context, inds []*population.Individual) error {
	n, err := evaluation.Ensure(ctx, s.evaluator, inds)
	s.evaluations += n
	return err
}

func (s *Scope) Evaluations() int {
	return s.evaluations
}

// Selector picks references out of each group it receives. All members of
// the group are evaluated before Select is called.
type Selector interface {
	Operator
	Iteration() Iteration
	Select(ctx context.Context, scope *Scope, group []*population.Individual) ([]*population.Individual, error)
}

// Reproducer recombines a parent group into new, unevaluated offspring.
// Parents must not be modified.
type Reproducer interface {
	Operator
	Iteration() Iteration
	Reproduce(ctx context.Context, scope *Scope, parents []*population.Individual) ([]*population.Individual, error)
}

// Mutator returns ind itself when it decides not to mutate, otherwise a new
// unevaluated individual derived from ind.
type Mutator interface {
	Operator
	Iteration() Iteration
	Mutate(ctx context.Context, scope *Scope, ind *population.Individual) (*population.Individual, error)
}

// Integrator merges candidates into the current generation and returns
// exactly target members.
type Integrator interface {
	Operator
	Integrate(ctx context.Context, scope *Scope, current, candidates []*population.Individual, target int) ([]*population.Individual, error)
}

// Arbiter resolves overlapping proposals of one variation stage.
type Arbiter interface {
	Operator
	Resolve(input []*population.Individual, proposals []Proposal) ([]Proposal, error)
}
