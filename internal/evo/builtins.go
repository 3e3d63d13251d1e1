package evo

import "math"

func init() {
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	registerBuiltins()
}

// registerBuiltins fills the registry. Callers hold the registry lock.
func registerBuiltins() {
	for _, spec := range builtinOperators() {
		operatorRegistry.m[registryKey{family: spec.Family, name: spec.Name}] = spec
	}
}

func builtinOperators() []OperatorSpec {
	return []OperatorSpec{
		{
			Name: "truncation", Family: FamilySelection,
			Description: "keep the fittest members of each group",
			Build: func(p Params) (Operator, error) {
				keep, err := p.Int("keep", 0)
				if err != nil {
					return nil, err
				}
				if keep <= 0 {
					return nil, configError("keep", "must be > 0, got %d", keep)
				}
				over, err := iterationParam(p, Whole{})
				if err != nil {
					return nil, err
				}
				return Truncation{Keep: keep, Over: over}, nil
			},
		},
		{
			Name: "tournament", Family: FamilySelection,
			Description: "fittest of random batches",
			Build: func(p Params) (Operator, error) {
				size, err := p.Int("size", 2)
				if err != nil {
					return nil, err
				}
				count, err := p.Int("count", 0)
				if err != nil {
					return nil, err
				}
				if size < 1 {
					return nil, configError("size", "must be > 0, got %d", size)
				}
				if count < 0 {
					return nil, configError("count", "must be >= 0, got %d", count)
				}
				return Tournament{Size: size, Count: count}, nil
			},
		},
		{
			Name: "roulette", Family: FamilySelection,
			Description: "fitness proportionate sampling",
			Build: func(p Params) (Operator, error) {
				count, err := p.Int("count", 0)
				if err != nil {
					return nil, err
				}
				return Roulette{Count: count}, nil
			},
		},
		{
			Name: "rank", Family: FamilySelection,
			Description: "linear rank sampling",
			Build: func(p Params) (Operator, error) {
				count, err := p.Int("count", 0)
				if err != nil {
					return nil, err
				}
				pressure, err := p.Float("pressure", 0)
				if err != nil {
					return nil, err
				}
				return Rank{Count: count, Pressure: pressure}, nil
			},
		},
		{
			Name: "crossover", Family: FamilyReproduction,
			Description: "n-point crossover on sequence genomes",
			Build: func(p Params) (Operator, error) {
				points, err := p.Int("points", 1)
				if err != nil {
					return nil, err
				}
				cuts, err := p.Ints("cuts")
				if err != nil {
					return nil, err
				}
				probability, err := p.Float("probability", 1)
				if err != nil {
					return nil, err
				}
				if err := checkProbability("probability", probability); err != nil {
					return nil, err
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				return Crossover{Points: points, Cuts: cuts, Probability: &probability, Over: over}, nil
			},
		},
		{
			Name: "discrete", Family: FamilyReproduction,
			Description: "gene-wise recombination of several parents",
			Build: func(p Params) (Operator, error) {
				parents, err := p.Int("parents", 2)
				if err != nil {
					return nil, err
				}
				if parents < 1 {
					return nil, configError("parents", "must be > 0, got %d", parents)
				}
				probability, err := p.Float("probability", 1)
				if err != nil {
					return nil, err
				}
				if err := checkProbability("probability", probability); err != nil {
					return nil, err
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				if over != nil && over.Arity() != parents {
					return nil, configError("iteration", "arity %d does not match parents %d", over.Arity(), parents)
				}
				return Discrete{Parents: parents, Probability: &probability, Over: over}, nil
			},
		},
		{
			Name: "blend", Family: FamilyReproduction,
			Description: "arithmetic blend of two float genomes",
			Build: func(p Params) (Operator, error) {
				alpha, err := p.Float("alpha", 0.5)
				if err != nil {
					return nil, err
				}
				if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
					return nil, configError("alpha", "must be within [0, 1], got %v", alpha)
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				if over != nil && over.Arity() != 2 {
					return nil, configError("iteration", "blend needs pairs, got arity %d", over.Arity())
				}
				return Blend{Alpha: &alpha, Over: over}, nil
			},
		},
		{
			Name: "clone", Family: FamilyReproduction,
			Description: "copy each parent",
			Build: func(Params) (Operator, error) {
				return Clone{}, nil
			},
		},
		{
			Name: "bit_flip", Family: FamilyMutation,
			Description: "flip bits with a per-gene rate",
			Build: func(p Params) (Operator, error) {
				rate, err := p.Float("rate", 0)
				if err != nil {
					return nil, err
				}
				if err := checkProbability("rate", rate); err != nil {
					return nil, err
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				return BitFlip{Rate: rate, Over: over}, nil
			},
		},
		{
			Name: "uniform_int", Family: FamilyMutation,
			Description: "reset integer genes uniformly within bounds",
			Build: func(p Params) (Operator, error) {
				rate, err := p.Float("rate", 0)
				if err != nil {
					return nil, err
				}
				low, err := p.Int("low", 0)
				if err != nil {
					return nil, err
				}
				high, err := p.Int("high", 1)
				if err != nil {
					return nil, err
				}
				if high < low {
					return nil, configError("high", "below low (%d < %d)", high, low)
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				return UniformInt{Rate: rate, Low: low, High: high, Over: over}, nil
			},
		},
		{
			Name: "gaussian", Family: FamilyMutation,
			Description: "add normal noise to float genes",
			Build: func(p Params) (Operator, error) {
				rate, err := p.Float("rate", 0)
				if err != nil {
					return nil, err
				}
				mu, err := p.Float("mu", 0)
				if err != nil {
					return nil, err
				}
				sigma, err := p.Float("sigma", 1)
				if err != nil {
					return nil, err
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				return Gaussian{Rate: rate, Mu: mu, Sigma: sigma, Over: over}, nil
			},
		},
		{
			Name: "perturb", Family: FamilyMutation,
			Description: "shift one float gene by a bounded uniform delta",
			Build: func(p Params) (Operator, error) {
				maxDelta, err := p.Float("max_delta", 0.1)
				if err != nil {
					return nil, err
				}
				over, err := iterationParam(p, nil)
				if err != nil {
					return nil, err
				}
				return Perturb{MaxDelta: maxDelta, Over: over}, nil
			},
		},
		{
			Name: "offspring_first", Family: FamilyIntegration,
			Description: "offspring replace the generation",
			Build: func(p Params) (Operator, error) {
				retain, err := p.Bool("retain_parents", false)
				if err != nil {
					return nil, err
				}
				return OffspringFirst{RetainParents: retain}, nil
			},
		},
		{
			Name: "elitist", Family: FamilyIntegration,
			Description: "carry the fittest members over",
			Build: func(p Params) (Operator, error) {
				elites, err := p.Int("elites", 1)
				if err != nil {
					return nil, err
				}
				retain, err := p.Bool("retain_parents", false)
				if err != nil {
					return nil, err
				}
				return Elitist{Elites: elites, RetainParents: retain}, nil
			},
		},
		{
			Name: "steady_state", Family: FamilyIntegration,
			Description: "keep the fittest of parents and offspring",
			Build: func(p Params) (Operator, error) {
				offspringOnly, err := p.Bool("offspring_only", false)
				if err != nil {
					return nil, err
				}
				return SteadyState{OffspringOnly: offspringOnly}, nil
			},
		},
		{
			Name: "crowding", Family: FamilyIntegration,
			Description: "offspring replace their most similar parent",
			Build: func(p Params) (Operator, error) {
				factor, err := p.Int("factor", 0)
				if err != nil {
					return nil, err
				}
				return Crowding{Factor: factor}, nil
			},
		},
		{
			Name: "strict", Family: FamilyClash,
			Description: "fail on contested individuals",
			Build: func(Params) (Operator, error) {
				return Strict{}, nil
			},
		},
		{
			Name: "priority", Family: FamilyClash,
			Description: "contested individuals go to the higher ranked operator",
			Build: func(p Params) (Operator, error) {
				order, err := p.Strings("order")
				if err != nil {
					return nil, err
				}
				return Priority{Order: order}, nil
			},
		},
		{
			Name: "first_wins", Family: FamilyClash,
			Description: "contested individuals go to the earliest operator",
			Build: func(Params) (Operator, error) {
				return FirstWins{}, nil
			},
		},
		{
			Name: "merge", Family: FamilyClash,
			Description: "keep the offspring of every operator",
			Build: func(Params) (Operator, error) {
				return Merge{}, nil
			},
		},
	}
}

func iterationParam(p Params, def Iteration) (Iteration, error) {
	sub, err := p.Sub("iteration")
	if err != nil {
		return nil, err
	}
	return IterationFromParams(sub, def)
}
