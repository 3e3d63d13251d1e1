package config

import (
	"fmt"

	"evokit/internal/evaluation"
	"evokit/internal/evo"
	"evokit/internal/genome"
	"evokit/internal/landscape"
)

// Build turns a validated run into an engine configuration and the genome
// initializer for its seed population. Reporters and logger are left to the
// caller.
func (r Run) Build() (evo.Config, genome.Initializer, error) {
	ev, init, err := landscape.Lookup(r.Genome.Landscape, r.Genome.Length)
	if err != nil {
		return evo.Config{}, nil, &evo.ConfigurationError{Field: "genome", Reason: err.Error()}
	}
	if r.Cache.Enabled {
		cached, err := evaluation.NewCached(ev, r.Cache.TTL)
		if err != nil {
			return evo.Config{}, nil, err
		}
		ev = cached
	}
	if r.Workers > 1 {
		ev = evaluation.Parallel{Evaluator: ev, Workers: r.Workers}
	}

	stages := make([]evo.Stage, 0, len(r.Stages))
	for i, s := range r.Stages {
		stage := evo.Stage{DropUnclaimed: s.DropUnclaimed}
		for j, op := range s.Operators {
			family, err := stageFamily(op.Family)
			if err != nil {
				return evo.Config{}, nil, fmt.Errorf("stages[%d].operators[%d]: %w", i, j, err)
			}
			v, err := evo.BuildVariation(family, op.Name, evo.Params(op.Params))
			if err != nil {
				return evo.Config{}, nil, fmt.Errorf("stages[%d].operators[%d]: %w", i, j, err)
			}
			stage.Variations = append(stage.Variations, v)
		}
		stages = append(stages, stage)
	}

	var arbiter evo.Arbiter
	if r.Clash != nil {
		arbiter, err = evo.BuildArbiter(r.Clash.Name, evo.Params(r.Clash.Params))
		if err != nil {
			return evo.Config{}, nil, fmt.Errorf("clash: %w", err)
		}
	}

	term := evo.Termination{
		MaxGenerations:    r.Termination.MaxGenerations,
		TargetFitness:     r.Termination.TargetFitness,
		Stagnation:        r.Termination.Stagnation,
		StagnationEpsilon: r.Termination.StagnationEpsilon,
	}
	if r.Termination.TargetOptimum {
		l, _ := landscape.Get(r.Genome.Landscape)
		if optimum, ok := l.Optimum(r.Genome.Length); ok {
			term.TargetFitness = &optimum
		}
	}

	cfg := evo.Config{
		Stages:      stages,
		Clash:       arbiter,
		Evaluator:   ev,
		TargetSize:  r.TargetSize,
		Termination: term,
		Seed:        r.Seed,
	}
	if r.Strategy != "" {
		s, err := evo.ParseStrategy(r.Strategy)
		if err != nil {
			return evo.Config{}, nil, err
		}
		if cfg, err = s.Apply(cfg); err != nil {
			return evo.Config{}, nil, err
		}
		return cfg, init, nil
	}

	if r.Selection == nil || r.Integration == nil {
		return evo.Config{}, nil, &evo.ConfigurationError{Field: "selection", Reason: "selection and integration are required without a strategy"}
	}
	if cfg.Selection, err = evo.BuildSelector(r.Selection.Name, evo.Params(r.Selection.Params)); err != nil {
		return evo.Config{}, nil, fmt.Errorf("selection: %w", err)
	}
	if cfg.Integration, err = evo.BuildIntegrator(r.Integration.Name, evo.Params(r.Integration.Params)); err != nil {
		return evo.Config{}, nil, fmt.Errorf("integration: %w", err)
	}
	return cfg, init, nil
}

func stageFamily(name string) (evo.Family, error) {
	switch name {
	case "reproduction":
		return evo.FamilyReproduction, nil
	case "mutation":
		return evo.FamilyMutation, nil
	default:
		return 0, &evo.ConfigurationError{Field: "family", Reason: fmt.Sprintf("%q cannot run in a stage", name)}
	}
}
