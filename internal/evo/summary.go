package evo

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"evokit/internal/model"
	"evokit/internal/population"
)

// Summarize computes generation statistics over evaluated members.
// Unevaluated members are counted in Size but not in the fitness figures.
func Summarize(generation int, members []*population.Individual, evaluations int) model.GenerationSummary {
	summary := model.GenerationSummary{
		Generation:  generation,
		Size:        len(members),
		Evaluations: evaluations,
	}
	fitness := make([]float64, 0, len(members))
	fingerprints := make(map[string]struct{}, len(members))
	for _, ind := range members {
		fingerprints[ind.Genome().Fingerprint()] = struct{}{}
		if f, ok := ind.Fitness(); ok {
			fitness = append(fitness, f)
		}
	}
	summary.Diversity = len(fingerprints)
	if len(fitness) == 0 {
		return summary
	}

	slices.Sort(fitness)
	summary.Worst = fitness[0]
	summary.Best = fitness[len(fitness)-1]
	summary.Median = stat.Quantile(0.5, stat.Empirical, fitness, nil)
	if len(fitness) > 1 {
		mean, variance := stat.MeanVariance(fitness, nil)
		summary.Mean = mean
		summary.StdDev = math.Sqrt(variance)
	} else {
		summary.Mean = fitness[0]
	}
	return summary
}
