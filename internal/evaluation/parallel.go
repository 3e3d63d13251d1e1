package evaluation

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"evokit/internal/genome"
)

// Parallel fans a batch out to a bounded number of goroutines. Results keep
// input order; the first failure cancels the remaining work.
type Parallel struct {
	Evaluator Evaluator
	Workers   int
}

func (p Parallel) Evaluate(ctx context.Context, g genome.Genome) (float64, error) {
	if p.Evaluator == nil {
		return 0, errors.New("parallel evaluator requires an inner evaluator")
	}
	return p.Evaluator.Evaluate(ctx, g)
}

func (p Parallel) EvaluateMany(ctx context.Context, genomes []genome.Genome) ([]float64, error) {
	if p.Evaluator == nil {
		return nil, errors.New("parallel evaluator requires an inner evaluator")
	}
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	out := make([]float64, len(genomes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range genomes {
		g.Go(func() error {
			value, err := p.Evaluator.Evaluate(gctx, genomes[i])
			if err != nil {
				return err
			}
			out[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
