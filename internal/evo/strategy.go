package evo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A strategy signature reads [a/b+c](mu/rho+lambda)^gamma, with ',' in place
// of '+' for comma selection. The optional prefix describes a community of
// populations.
var signatureRE = regexp.MustCompile(`^(?:(\d+)(?:/(\d+))?([+,])(\d+))?\((\d+)(?:/(\d+))?([+,])(\d+)\)(?:\^(\d+))?$`)

// Strategy is a (mu/rho +, lambda) evolution strategy. Each generation
// draws Lambda batches of Rho parents, recombines every batch into one
// child and mutates it. Survivors are the Mu fittest of parents and
// offspring (Plus) or of the offspring alone.
type Strategy struct {
	Mu     int
	Rho    int
	Lambda int
	Plus   bool
	// Gamma bounds the run in generations; zero leaves termination alone.
	Gamma int
}

// ParseStrategy reads a signature such as "(5/2+20)^100" or "(1,10)".
// A community prefix is accepted only when it names a single population.
func ParseStrategy(signature string) (Strategy, error) {
	m := signatureRE.FindStringSubmatch(strings.ReplaceAll(signature, " ", ""))
	if m == nil {
		return Strategy{}, configError("strategy", "malformed signature %q", signature)
	}
	if m[1] != "" {
		if m[1] != "1" || m[4] != "1" || (m[2] != "" && m[2] != "1") {
			return Strategy{}, configError("strategy", "community signature %q needs several populations, which are not supported", signature)
		}
	}

	num := func(s string, def int) int {
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			// The pattern only admits digits, so this is an overflow.
			return -1
		}
		return n
	}
	s := Strategy{
		Mu:     num(m[5], 0),
		Rho:    num(m[6], 1),
		Plus:   m[7] == "+",
		Lambda: num(m[8], 0),
		Gamma:  num(m[9], 0),
	}
	if err := s.validate(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}

func (s Strategy) validate() error {
	switch {
	case s.Mu < 1:
		return configError("strategy.mu", "must be > 0, got %d", s.Mu)
	case s.Rho < 1 || s.Rho > s.Mu:
		return configError("strategy.rho", "must be within [1, %d], got %d", s.Mu, s.Rho)
	case s.Lambda < 1:
		return configError("strategy.lambda", "must be > 0, got %d", s.Lambda)
	case !s.Plus && s.Lambda < s.Mu:
		return configError("strategy.lambda", "comma selection needs lambda >= mu, got %d < %d", s.Lambda, s.Mu)
	case s.Gamma < 0:
		return configError("strategy.gamma", "must be >= 0, got %d", s.Gamma)
	}
	return nil
}

func (s Strategy) String() string {
	sep := ","
	if s.Plus {
		sep = "+"
	}
	out := fmt.Sprintf("(%d/%d%s%d)", s.Mu, s.Rho, sep, s.Lambda)
	if s.Gamma > 0 {
		out += fmt.Sprintf("^%d", s.Gamma)
	}
	return out
}

// Apply fills cfg with the strategy's pipeline. Stages already present in
// cfg run after recombination; without any, every child gets unit
// Gaussian noise on each gene. Gamma sets the generation limit unless cfg
// has one.
func (s Strategy) Apply(cfg Config) (Config, error) {
	if err := s.validate(); err != nil {
		return Config{}, err
	}
	recombine := Stage{Variations: []Variation{
		Reproduce(Discrete{Parents: s.Rho, Over: Batches{Size: s.Rho, Total: s.Lambda}}),
	}, DropUnclaimed: true}
	mutation := cfg.Stages
	if len(mutation) == 0 {
		mutation = []Stage{{Variations: []Variation{Mutate(Gaussian{Rate: 1, Sigma: 1})}}}
	}

	cfg.Selection = Truncation{Keep: s.Mu}
	cfg.Stages = append([]Stage{recombine}, mutation...)
	cfg.Integration = SteadyState{OffspringOnly: !s.Plus}
	cfg.TargetSize = s.Mu
	if s.Gamma > 0 && cfg.Termination.MaxGenerations == 0 {
		cfg.Termination.MaxGenerations = s.Gamma
	}
	return cfg, nil
}
