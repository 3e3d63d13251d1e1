package evo

import (
	"math"

	"evokit/internal/model"
)

const (
	ReasonTargetFitness  = "target_fitness"
	ReasonStagnation     = "stagnation"
	ReasonMaxGenerations = "max_generations"
	ReasonCancelled      = "cancelled"
	ReasonError          = "error"
)

// Termination lists the stopping criteria. At least one must be set. When
// several trigger on the same generation, convergence wins over the
// generation limit.
type Termination struct {
	MaxGenerations    int
	TargetFitness     *float64
	Stagnation        int
	StagnationEpsilon float64
}

func (t Termination) validate() error {
	if t.MaxGenerations < 0 {
		return configError("termination.max_generations", "must be >= 0, got %d", t.MaxGenerations)
	}
	if t.Stagnation < 0 {
		return configError("termination.stagnation", "must be >= 0, got %d", t.Stagnation)
	}
	if t.StagnationEpsilon < 0 || math.IsNaN(t.StagnationEpsilon) {
		return configError("termination.stagnation_epsilon", "must be >= 0, got %v", t.StagnationEpsilon)
	}
	if t.TargetFitness != nil && (math.IsNaN(*t.TargetFitness) || math.IsInf(*t.TargetFitness, 0)) {
		return configError("termination.target_fitness", "must be finite, got %v", *t.TargetFitness)
	}
	if t.MaxGenerations == 0 && t.Stagnation == 0 && t.TargetFitness == nil {
		return configError("termination", "no stopping criterion configured")
	}
	return nil
}

// tracker follows run progress and decides when to stop.
type tracker struct {
	criteria        Termination
	bestSoFar       float64
	seen            bool
	lastImprovement int
}

func (t *tracker) observe(s model.GenerationSummary) (State, string, bool) {
	if s.Size > 0 && (!t.seen || s.Best > t.bestSoFar+t.criteria.StagnationEpsilon) {
		t.bestSoFar = s.Best
		t.seen = true
		t.lastImprovement = s.Generation
	}
	if t.criteria.TargetFitness != nil && s.Size > 0 && s.Best >= *t.criteria.TargetFitness {
		return StateConverged, ReasonTargetFitness, true
	}
	if t.criteria.Stagnation > 0 && s.Generation-t.lastImprovement >= t.criteria.Stagnation {
		return StateConverged, ReasonStagnation, true
	}
	if t.criteria.MaxGenerations > 0 && s.Generation >= t.criteria.MaxGenerations {
		return StateMaxGenerationsReached, ReasonMaxGenerations, true
	}
	return StateRunning, "", false
}
