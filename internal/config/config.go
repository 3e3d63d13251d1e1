// Package config loads YAML run documents and builds engine configurations
// from them through the named operator registry.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"evokit/internal/evo"
	"evokit/internal/landscape"
)

// Run is one experiment: a landscape, a population and the operator
// pipeline that evolves it.
type Run struct {
	Name        string      `yaml:"name"`
	Seed        int64       `yaml:"seed"`
	Population  int         `yaml:"population" validate:"required,min=1"`
	TargetSize  int         `yaml:"target_size" validate:"min=0"`
	Genome      Genome      `yaml:"genome"`
	// Strategy, such as "(5/2+20)", replaces selection and integration and
	// runs its recombination ahead of the configured stages.
	Strategy    string      `yaml:"strategy"`
	Selection   *Operator   `yaml:"selection" validate:"required_without=Strategy,excluded_with=Strategy"`
	Stages      []Stage     `yaml:"stages" validate:"dive"`
	Clash       *Operator   `yaml:"clash" validate:"omitempty"`
	Integration *Operator   `yaml:"integration" validate:"required_without=Strategy,excluded_with=Strategy"`
	Termination Termination `yaml:"termination"`
	Workers     int         `yaml:"workers" validate:"min=0,max=1024"`
	Cache       Cache       `yaml:"cache"`
	History     History     `yaml:"history"`
}

type Genome struct {
	Landscape string `yaml:"landscape" validate:"required"`
	Length    int    `yaml:"length" validate:"required,min=1"`
}

// Operator names a registered operator and its parameters.
type Operator struct {
	Name   string         `yaml:"operator" validate:"required"`
	Params map[string]any `yaml:"params"`
}

type StageOperator struct {
	Family   string `yaml:"family" validate:"required,oneof=reproduction mutation"`
	Operator `yaml:",inline"`
}

type Stage struct {
	Operators     []StageOperator `yaml:"operators" validate:"required,min=1,dive"`
	DropUnclaimed bool            `yaml:"drop_unclaimed"`
}

type Termination struct {
	MaxGenerations int      `yaml:"max_generations" validate:"min=0"`
	TargetFitness  *float64 `yaml:"target_fitness"`
	// TargetOptimum stops at the landscape optimum when it is known.
	TargetOptimum     bool    `yaml:"target_optimum"`
	Stagnation        int     `yaml:"stagnation" validate:"min=0"`
	StagnationEpsilon float64 `yaml:"stagnation_epsilon" validate:"min=0"`
}

type Cache struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"min=0"`
}

type History struct {
	// SkipPopulation keeps summaries only and drops population snapshots.
	SkipPopulation bool `yaml:"skip_population"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Load reads and validates the run document at path.
func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, err
	}
	run, err := Parse(data)
	if err != nil {
		return Run{}, fmt.Errorf("%s: %w", path, err)
	}
	return run, nil
}

// Parse decodes a run document, rejecting unknown keys, and validates it.
func Parse(data []byte) (Run, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var run Run
	if err := dec.Decode(&run); err != nil {
		if errors.Is(err, io.EOF) {
			return Run{}, &evo.ConfigurationError{Field: "document", Reason: "is empty"}
		}
		return Run{}, fmt.Errorf("decode run config: %w", err)
	}
	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Validate checks field constraints and that the landscape exists. Operator
// names and parameters are checked by Build.
func (r Run) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		errs := make([]error, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
		return errors.Join(errs...)
	}

	l, ok := landscape.Get(r.Genome.Landscape)
	if !ok {
		return &evo.ConfigurationError{
			Field:  "genome.landscape",
			Reason: fmt.Sprintf("unknown landscape %q (known: %s)", r.Genome.Landscape, strings.Join(landscape.Names(), ", ")),
		}
	}
	if r.Strategy != "" {
		s, err := evo.ParseStrategy(r.Strategy)
		if err != nil {
			return err
		}
		if r.Population != s.Mu {
			return &evo.ConfigurationError{Field: "population", Reason: fmt.Sprintf("must equal mu of %s, got %d", s, r.Population)}
		}
		if r.TargetSize != 0 && r.TargetSize != s.Mu {
			return &evo.ConfigurationError{Field: "target_size", Reason: fmt.Sprintf("must be 0 or mu of %s, got %d", s, r.TargetSize)}
		}
	}
	if r.Termination.TargetOptimum {
		if _, known := l.Optimum(r.Genome.Length); !known {
			return &evo.ConfigurationError{Field: "termination.target_optimum", Reason: "landscape has no known optimum"}
		}
		if r.Termination.TargetFitness != nil {
			return &evo.ConfigurationError{Field: "termination", Reason: "target_fitness and target_optimum are exclusive"}
		}
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	reason := "failed " + fe.Tag()
	if fe.Param() != "" {
		reason += "=" + fe.Param()
	}
	return &evo.ConfigurationError{Field: field, Reason: fmt.Sprintf("%s (got %v)", reason, fe.Value())}
}
