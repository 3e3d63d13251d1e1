// Package landscape provides benchmark fitness functions with matching
// genome initializers. Every landscape is maximised.
package landscape

import (
	"context"
	"fmt"
	"sort"

	"evokit/internal/evaluation"
	"evokit/internal/genome"
)

type Landscape interface {
	Name() string
	Evaluate(ctx context.Context, g genome.Genome) (float64, error)
	// Initializer draws random genomes of length from the landscape domain.
	Initializer(length int) genome.Initializer
	// Optimum is the best reachable fitness for length, when known.
	Optimum(length int) (float64, bool)
}

var builtins = map[string]Landscape{
	"onemax":       OneMax{},
	"leading_ones": LeadingOnes{},
	"sphere":       Sphere{},
	"rastrigin":    Rastrigin{},
	"himmelblau":   Himmelblau{},
	"target_match": TargetMatch{},
}

// Get returns the named landscape.
func Get(name string) (Landscape, bool) {
	l, ok := builtins[Normalize(name)]
	return l, ok
}

// Lookup returns the evaluator and initializer of the named landscape for
// genomes of length.
func Lookup(name string, length int) (evaluation.Evaluator, genome.Initializer, error) {
	l, ok := Get(name)
	if !ok {
		return nil, nil, fmt.Errorf("unknown landscape %q (known: %v)", name, Names())
	}
	if length < 1 {
		return nil, nil, fmt.Errorf("landscape %s: genome length must be >= 1, got %d", name, length)
	}
	if fixed, ok := l.(interface{ Length() int }); ok && fixed.Length() != length {
		return nil, nil, fmt.Errorf("landscape %s needs genome length %d, got %d", name, fixed.Length(), length)
	}
	return l, l.Initializer(length), nil
}

func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func asBits(name string, g genome.Genome) (genome.Bits, error) {
	v, ok := g.(genome.Bits)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects bits, got %T", genome.ErrGenomeMismatch, name, g)
	}
	return v, nil
}

func asFloats(name string, g genome.Genome) (genome.Floats, error) {
	v, ok := g.(genome.Floats)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects floats, got %T", genome.ErrGenomeMismatch, name, g)
	}
	return v, nil
}

func asInts(name string, g genome.Genome) (genome.Ints, error) {
	v, ok := g.(genome.Ints)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects ints, got %T", genome.ErrGenomeMismatch, name, g)
	}
	return v, nil
}
