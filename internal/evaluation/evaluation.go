package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"evokit/internal/genome"
	"evokit/internal/population"
)

var ErrEvaluation = errors.New("evaluation failed")

// Evaluator computes the fitness of a genome. Implementations must be pure
// with respect to genome content; higher fitness is better.
type Evaluator interface {
	Evaluate(ctx context.Context, g genome.Genome) (float64, error)
}

// BatchEvaluator evaluates many genomes at once and returns fitness values in
// input order.
type BatchEvaluator interface {
	Evaluator
	EvaluateMany(ctx context.Context, genomes []genome.Genome) ([]float64, error)
}

type Func func(ctx context.Context, g genome.Genome) (float64, error)

func (f Func) Evaluate(ctx context.Context, g genome.Genome) (float64, error) {
	return f(ctx, g)
}

// Error reports the individual whose evaluation failed.
type Error struct {
	IndividualID string
	Err          error
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluate individual %s: %v", e.IndividualID, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrEvaluation, e.Err}
}

// Ensure evaluates every individual in inds whose fitness cache is invalid and
// writes the results back. Valid caches are left untouched. It blocks until
// all results are in.
func Ensure(ctx context.Context, ev Evaluator, inds []*population.Individual) (int, error) {
	if ev == nil {
		return 0, errors.New("evaluator is required")
	}
	pending := make([]*population.Individual, 0, len(inds))
	seen := make(map[*population.Individual]struct{}, len(inds))
	for _, ind := range inds {
		if ind == nil || ind.Valid() {
			continue
		}
		if _, ok := seen[ind]; ok {
			continue
		}
		seen[ind] = struct{}{}
		pending = append(pending, ind)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if batch, ok := ev.(BatchEvaluator); ok {
		genomes := make([]genome.Genome, len(pending))
		for i, ind := range pending {
			genomes[i] = ind.Genome()
		}
		values, err := batch.EvaluateMany(ctx, genomes)
		if err != nil {
			return 0, &Error{IndividualID: pending[0].ID(), Err: err}
		}
		if len(values) != len(pending) {
			return 0, fmt.Errorf("%w: batch returned %d results for %d genomes", ErrEvaluation, len(values), len(pending))
		}
		for i, ind := range pending {
			if math.IsNaN(values[i]) {
				return 0, &Error{IndividualID: ind.ID(), Err: errors.New("fitness is NaN")}
			}
		}
		for i, ind := range pending {
			ind.SetFitness(values[i])
		}
		return len(pending), nil
	}

	for _, ind := range pending {
		value, err := ev.Evaluate(ctx, ind.Genome())
		if err != nil {
			return 0, &Error{IndividualID: ind.ID(), Err: err}
		}
		if math.IsNaN(value) {
			return 0, &Error{IndividualID: ind.ID(), Err: errors.New("fitness is NaN")}
		}
		ind.SetFitness(value)
	}
	return len(pending), nil
}
