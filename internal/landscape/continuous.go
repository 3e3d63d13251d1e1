package landscape

import (
	"context"
	"fmt"
	"math"

	"evokit/internal/genome"
)

const rastriginBound = 5.12

// Sphere is the negated sum of squares, best at the origin.
type Sphere struct{}

func (Sphere) Name() string { return "sphere" }

func (l Sphere) Evaluate(_ context.Context, g genome.Genome) (float64, error) {
	xs, err := asFloats(l.Name(), g)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, x := range xs {
		sum += x * x
	}
	return -sum, nil
}

func (Sphere) Initializer(length int) genome.Initializer {
	return genome.RandomFloats(length, -rastriginBound, rastriginBound)
}

func (Sphere) Optimum(int) (float64, bool) { return 0, true }

// Rastrigin is the negated Rastrigin function with A = 10.
type Rastrigin struct{}

func (Rastrigin) Name() string { return "rastrigin" }

func (l Rastrigin) Evaluate(_ context.Context, g genome.Genome) (float64, error) {
	xs, err := asFloats(l.Name(), g)
	if err != nil {
		return 0, err
	}
	sum := 10 * float64(len(xs))
	for _, x := range xs {
		sum += x*x - 10*math.Cos(2*math.Pi*x)
	}
	return -sum, nil
}

func (Rastrigin) Initializer(length int) genome.Initializer {
	return genome.RandomFloats(length, -rastriginBound, rastriginBound)
}

func (Rastrigin) Optimum(int) (float64, bool) { return 0, true }

// Himmelblau is the negated two-dimensional Himmelblau function with four
// global optima of value 0.
type Himmelblau struct{}

func (Himmelblau) Name() string { return "himmelblau" }

func (Himmelblau) Length() int { return 2 }

func (l Himmelblau) Evaluate(_ context.Context, g genome.Genome) (float64, error) {
	xs, err := asFloats(l.Name(), g)
	if err != nil {
		return 0, err
	}
	if len(xs) != 2 {
		return 0, fmt.Errorf("%w: himmelblau expects 2 genes, got %d", genome.ErrGenomeMismatch, len(xs))
	}
	x, y := xs[0], xs[1]
	a := x*x + y - 11
	b := x + y*y - 7
	return -(a*a + b*b), nil
}

func (Himmelblau) Initializer(int) genome.Initializer { return genome.RandomFloats(2, -5, 5) }

func (Himmelblau) Optimum(int) (float64, bool) { return 0, true }
