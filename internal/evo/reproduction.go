package evo

import (
	"context"
	"fmt"
	"math"
	"slices"

	"evokit/internal/genome"
	"evokit/internal/population"
)

func sequenceOf(ind *population.Individual) (genome.Sequence, error) {
	seq, ok := ind.Genome().(genome.Sequence)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a sequence genome", genome.ErrGenomeMismatch, ind.Genome())
	}
	return seq, nil
}

func copies(scope *Scope, parents []*population.Individual) []*population.Individual {
	out := make([]*population.Individual, len(parents))
	for i, p := range parents {
		out[i] = p.Copy(scope.Generation)
	}
	return out
}

// chance reports whether an event with probability p happens. A nil p
// means always, so the zero value of an operator is usable.
func chance(scope *Scope, p *float64) bool {
	switch {
	case p == nil || *p >= 1:
		return true
	case *p <= 0:
		return false
	}
	return scope.Rand.Float64() < *p
}

func checkOptionalProbability(field string, p *float64) error {
	if p == nil {
		return nil
	}
	return checkProbability(field, *p)
}

// Crossover performs n-point crossover on pairs of sequence genomes and
// emits two children per pair. Cuts, when set, are used instead of random
// points. Pairs skipped by Probability are copied unchanged; a nil
// Probability crosses every pair.
type Crossover struct {
	Points      int
	Cuts        []int
	Probability *float64
	Over        Iteration
}

func (c Crossover) iteration() Iteration {
	if c.Over == nil {
		return Straight{Size: 2}
	}
	return c.Over
}

func (c Crossover) Descriptor() Descriptor {
	return Descriptor{Name: "crossover", Family: FamilyReproduction, Arity: c.iteration().Arity()}
}

func (c Crossover) Iteration() Iteration { return c.iteration() }

func (c Crossover) Reproduce(_ context.Context, scope *Scope, parents []*population.Individual) ([]*population.Individual, error) {
	if err := checkOptionalProbability("crossover.probability", c.Probability); err != nil {
		return nil, err
	}
	if len(parents) == 1 {
		return copies(scope, parents), nil
	}
	if len(parents) != 2 {
		return nil, &InsufficientPopulationError{Operator: "crossover", Arity: 2, Size: len(parents)}
	}
	if !chance(scope, c.Probability) {
		return copies(scope, parents), nil
	}
	a, err := sequenceOf(parents[0])
	if err != nil {
		return nil, err
	}
	b, err := sequenceOf(parents[1])
	if err != nil {
		return nil, err
	}
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("%w: crossover lengths %d and %d", genome.ErrGenomeMismatch, a.Len(), b.Len())
	}
	cuts, err := c.cutPoints(scope, a.Len())
	if err != nil {
		return nil, err
	}

	childA := a.Clone().(genome.Sequence)
	childB := b.Clone().(genome.Sequence)
	bounds := append(append([]int{0}, cuts...), a.Len())
	for seg := 1; seg+1 < len(bounds); seg += 2 {
		if err := childA.Exchange(childB, bounds[seg], bounds[seg+1]); err != nil {
			return nil, err
		}
	}
	return []*population.Individual{
		population.NewOffspring(childA, scope.Generation, parents...),
		population.NewOffspring(childB, scope.Generation, parents[1], parents[0]),
	}, nil
}

func (c Crossover) cutPoints(scope *Scope, length int) ([]int, error) {
	if len(c.Cuts) > 0 {
		cuts := slices.Clone(c.Cuts)
		slices.Sort(cuts)
		for _, cut := range cuts {
			if cut <= 0 || cut >= length {
				return nil, configError("crossover.cuts", "cut %d outside (0, %d)", cut, length)
			}
		}
		return cuts, nil
	}
	points := c.Points
	if points == 0 {
		points = 1
	}
	if points < 0 {
		return nil, configError("crossover.points", "must be > 0, got %d", points)
	}
	if length < 2 {
		return nil, fmt.Errorf("%w: crossover needs at least two genes, got %d", genome.ErrGenomeMismatch, length)
	}
	cuts := make([]int, points)
	for i := range cuts {
		cuts[i] = 1 + scope.Rand.Intn(length-1)
	}
	slices.Sort(cuts)
	return cuts, nil
}

// Discrete builds one child per group by taking every gene from one of the
// parents. Genes are dealt to parents in equal shares over a random order.
// Groups skipped by Probability yield a copy of their first parent.
type Discrete struct {
	Parents     int
	Probability *float64
	// Over replaces the default straight grouping; its arity must equal Parents.
	Over Iteration
}

func (d Discrete) arity() int {
	if d.Parents == 0 {
		return 2
	}
	return d.Parents
}

func (d Discrete) Descriptor() Descriptor {
	return Descriptor{Name: "discrete", Family: FamilyReproduction, Arity: d.Iteration().Arity()}
}

func (d Discrete) Iteration() Iteration {
	if d.Over == nil {
		return Straight{Size: d.arity()}
	}
	return d.Over
}

func (d Discrete) Reproduce(_ context.Context, scope *Scope, parents []*population.Individual) ([]*population.Individual, error) {
	if err := checkOptionalProbability("discrete.probability", d.Probability); err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return nil, &InsufficientPopulationError{Operator: "discrete", Arity: d.arity(), Size: 0}
	}
	if len(parents) == 1 || !chance(scope, d.Probability) {
		return copies(scope, parents[:1]), nil
	}
	seqs := make([]genome.Sequence, len(parents))
	for i, p := range parents {
		seq, err := sequenceOf(p)
		if err != nil {
			return nil, err
		}
		if i > 0 && seq.Len() != seqs[0].Len() {
			return nil, fmt.Errorf("%w: discrete lengths %d and %d", genome.ErrGenomeMismatch, seqs[0].Len(), seq.Len())
		}
		seqs[i] = seq
	}

	length := seqs[0].Len()
	child := seqs[0].Clone().(genome.Sequence)
	positions := scope.Rand.Perm(length)
	share, extra := length/len(seqs), length%len(seqs)
	pos := 0
	for i, src := range seqs {
		n := share
		if i < extra {
			n++
		}
		for _, gene := range positions[pos : pos+n] {
			if err := child.Take(src, gene); err != nil {
				return nil, err
			}
		}
		pos += n
	}
	return []*population.Individual{population.NewOffspring(child, scope.Generation, parents...)}, nil
}

// Blend mixes two real-valued parents arithmetically:
// a*alpha + b*(1-alpha) and the mirrored child. A nil Alpha is 0.5.
type Blend struct {
	Alpha *float64
	Over  Iteration
}

func (b Blend) Descriptor() Descriptor {
	return Descriptor{Name: "blend", Family: FamilyReproduction, Arity: b.Iteration().Arity()}
}

func (b Blend) Iteration() Iteration {
	if b.Over == nil {
		return Straight{Size: 2}
	}
	return b.Over
}

func (b Blend) Reproduce(_ context.Context, scope *Scope, parents []*population.Individual) ([]*population.Individual, error) {
	alpha := 0.5
	if b.Alpha != nil {
		alpha = *b.Alpha
	}
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, configError("blend.alpha", "must be within [0, 1], got %v", alpha)
	}
	if len(parents) == 1 {
		return copies(scope, parents), nil
	}
	if len(parents) != 2 {
		return nil, &InsufficientPopulationError{Operator: "blend", Arity: 2, Size: len(parents)}
	}
	x, ok := parents[0].Genome().(genome.Floats)
	y, ok2 := parents[1].Genome().(genome.Floats)
	if !ok || !ok2 {
		return nil, fmt.Errorf("%w: blend requires float genomes", genome.ErrGenomeMismatch)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: blend lengths %d and %d", genome.ErrGenomeMismatch, len(x), len(y))
	}
	a := make(genome.Floats, len(x))
	c := make(genome.Floats, len(x))
	for i := range x {
		a[i] = alpha*x[i] + (1-alpha)*y[i]
		c[i] = alpha*y[i] + (1-alpha)*x[i]
	}
	return []*population.Individual{
		population.NewOffspring(a, scope.Generation, parents...),
		population.NewOffspring(c, scope.Generation, parents[1], parents[0]),
	}, nil
}

// Clone copies each parent under a new identity, keeping its fitness.
type Clone struct{}

func (Clone) Descriptor() Descriptor {
	return Descriptor{Name: "clone", Family: FamilyReproduction, Arity: 1}
}

func (Clone) Iteration() Iteration { return Single{} }

func (Clone) Reproduce(_ context.Context, scope *Scope, parents []*population.Individual) ([]*population.Individual, error) {
	return copies(scope, parents), nil
}
