package landscape

import (
	"context"

	"evokit/internal/genome"
)

// OneMax counts set bits.
type OneMax struct{}

func (OneMax) Name() string { return "onemax" }

func (l OneMax) Evaluate(_ context.Context, g genome.Genome) (float64, error) {
	bits, err := asBits(l.Name(), g)
	if err != nil {
		return 0, err
	}
	var n int
	for _, b := range bits {
		if b {
			n++
		}
	}
	return float64(n), nil
}

func (OneMax) Initializer(length int) genome.Initializer { return genome.RandomBits(length) }

func (OneMax) Optimum(length int) (float64, bool) { return float64(length), true }

// LeadingOnes counts set bits before the first clear one.
type LeadingOnes struct{}

func (LeadingOnes) Name() string { return "leading_ones" }

func (l LeadingOnes) Evaluate(_ context.Context, g genome.Genome) (float64, error) {
	bits, err := asBits(l.Name(), g)
	if err != nil {
		return 0, err
	}
	var n int
	for _, b := range bits {
		if !b {
			break
		}
		n++
	}
	return float64(n), nil
}

func (LeadingOnes) Initializer(length int) genome.Initializer { return genome.RandomBits(length) }

func (LeadingOnes) Optimum(length int) (float64, bool) { return float64(length), true }
