package evo

import (
	"context"
	"fmt"

	"evokit/internal/genome"
	"evokit/internal/population"
)

func mutationIteration(it Iteration) Iteration {
	if it == nil {
		return Single{}
	}
	return it
}

// BitFlip flips every bit of a bit genome with probability Rate.
type BitFlip struct {
	Rate float64
	Over Iteration
}

func (m BitFlip) Descriptor() Descriptor {
	return Descriptor{Name: "bit_flip", Family: FamilyMutation, Arity: 1}
}

func (m BitFlip) Iteration() Iteration { return mutationIteration(m.Over) }

func (m BitFlip) Mutate(_ context.Context, scope *Scope, ind *population.Individual) (*population.Individual, error) {
	if err := checkProbability("bit_flip.rate", m.Rate); err != nil {
		return nil, err
	}
	bits, ok := ind.Genome().(genome.Bits)
	if !ok {
		return nil, fmt.Errorf("%w: bit_flip requires a bit genome, got %T", genome.ErrGenomeMismatch, ind.Genome())
	}
	var out genome.Bits
	for i := range bits {
		if scope.Rand.Float64() >= m.Rate {
			continue
		}
		if out == nil {
			out = bits.Clone().(genome.Bits)
		}
		out[i] = !out[i]
	}
	if out == nil {
		return ind, nil
	}
	return ind.Derive(out, scope.Generation), nil
}

// UniformInt resets every gene of an int genome with probability Rate to a
// uniform value in [Low, High].
type UniformInt struct {
	Rate      float64
	Low, High int
	Over      Iteration
}

func (m UniformInt) Descriptor() Descriptor {
	return Descriptor{Name: "uniform_int", Family: FamilyMutation, Arity: 1}
}

func (m UniformInt) Iteration() Iteration { return mutationIteration(m.Over) }

func (m UniformInt) Mutate(_ context.Context, scope *Scope, ind *population.Individual) (*population.Individual, error) {
	if err := checkProbability("uniform_int.rate", m.Rate); err != nil {
		return nil, err
	}
	if m.High < m.Low {
		return nil, configError("uniform_int", "high %d below low %d", m.High, m.Low)
	}
	ints, ok := ind.Genome().(genome.Ints)
	if !ok {
		return nil, fmt.Errorf("%w: uniform_int requires an int genome, got %T", genome.ErrGenomeMismatch, ind.Genome())
	}
	var out genome.Ints
	for i, v := range ints {
		if scope.Rand.Float64() >= m.Rate {
			continue
		}
		next := m.Low + scope.Rand.Intn(m.High-m.Low+1)
		if next == v {
			continue
		}
		if out == nil {
			out = ints.Clone().(genome.Ints)
		}
		out[i] = next
	}
	if out == nil {
		return ind, nil
	}
	return ind.Derive(out, scope.Generation), nil
}

// Gaussian adds N(Mu, Sigma) noise to every gene of a float genome with
// probability Rate.
type Gaussian struct {
	Rate  float64
	Mu    float64
	Sigma float64
	Over  Iteration
}

func (m Gaussian) Descriptor() Descriptor {
	return Descriptor{Name: "gaussian", Family: FamilyMutation, Arity: 1}
}

func (m Gaussian) Iteration() Iteration { return mutationIteration(m.Over) }

func (m Gaussian) Mutate(_ context.Context, scope *Scope, ind *population.Individual) (*population.Individual, error) {
	if err := checkProbability("gaussian.rate", m.Rate); err != nil {
		return nil, err
	}
	if m.Sigma < 0 {
		return nil, configError("gaussian.sigma", "must be >= 0, got %v", m.Sigma)
	}
	floats, ok := ind.Genome().(genome.Floats)
	if !ok {
		return nil, fmt.Errorf("%w: gaussian requires a float genome, got %T", genome.ErrGenomeMismatch, ind.Genome())
	}
	var out genome.Floats
	for i := range floats {
		if scope.Rand.Float64() >= m.Rate {
			continue
		}
		delta := m.Mu + scope.Rand.NormFloat64()*m.Sigma
		if delta == 0 {
			continue
		}
		if out == nil {
			out = floats.Clone().(genome.Floats)
		}
		out[i] += delta
	}
	if out == nil {
		return ind, nil
	}
	return ind.Derive(out, scope.Generation), nil
}

// Perturb shifts one random gene of a float genome by a uniform delta in
// [-MaxDelta, MaxDelta].
type Perturb struct {
	MaxDelta float64
	Over     Iteration
}

func (m Perturb) Descriptor() Descriptor {
	return Descriptor{Name: "perturb", Family: FamilyMutation, Arity: 1}
}

func (m Perturb) Iteration() Iteration { return mutationIteration(m.Over) }

func (m Perturb) Mutate(_ context.Context, scope *Scope, ind *population.Individual) (*population.Individual, error) {
	if m.MaxDelta <= 0 {
		return nil, configError("perturb.max_delta", "must be > 0, got %v", m.MaxDelta)
	}
	floats, ok := ind.Genome().(genome.Floats)
	if !ok {
		return nil, fmt.Errorf("%w: perturb requires a float genome, got %T", genome.ErrGenomeMismatch, ind.Genome())
	}
	if len(floats) == 0 {
		return ind, nil
	}
	out := floats.Clone().(genome.Floats)
	out[scope.Rand.Intn(len(out))] += (scope.Rand.Float64()*2 - 1) * m.MaxDelta
	return ind.Derive(out, scope.Generation), nil
}
