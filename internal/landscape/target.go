package landscape

import (
	"context"
	"fmt"

	"evokit/internal/genome"
)

const (
	defaultTargetLow  = 1
	defaultTargetHigh = 100
)

// TargetMatch scores integer genomes by the negated mean squared distance
// to Target. A nil Target is derived deterministically from the genome
// length so that runs stay reproducible.
type TargetMatch struct {
	Target    []int
	Low, High int
}

func (TargetMatch) Name() string { return "target_match" }

func (l TargetMatch) Evaluate(_ context.Context, g genome.Genome) (float64, error) {
	xs, err := asInts(l.Name(), g)
	if err != nil {
		return 0, err
	}
	if len(xs) == 0 {
		return 0, fmt.Errorf("%w: target_match expects at least one gene", genome.ErrGenomeMismatch)
	}
	target := l.target(len(xs))
	if len(target) != len(xs) {
		return 0, fmt.Errorf("%w: target has %d genes, genome has %d", genome.ErrGenomeMismatch, len(target), len(xs))
	}
	var sum float64
	for i, x := range xs {
		d := float64(target[i] - x)
		sum += d * d
	}
	return -sum / float64(len(xs)), nil
}

func (l TargetMatch) Initializer(length int) genome.Initializer {
	low, high := l.bounds()
	return genome.RandomInts(length, low, high)
}

func (TargetMatch) Optimum(int) (float64, bool) { return 0, true }

func (l TargetMatch) bounds() (int, int) {
	if l.Low == 0 && l.High == 0 {
		return defaultTargetLow, defaultTargetHigh
	}
	return l.Low, l.High
}

func (l TargetMatch) target(length int) []int {
	if l.Target != nil {
		return l.Target
	}
	low, high := l.bounds()
	span := high - low + 1
	out := make([]int, length)
	for i := range out {
		out[i] = low + (i*37+11)%span
	}
	return out
}
