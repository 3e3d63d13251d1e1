package evo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration          = errors.New("configuration error")
	ErrInsufficientPopulation = errors.New("insufficient population")
	ErrClashUnresolved        = errors.New("clash unresolved")
	ErrUnevaluated            = errors.New("fitness read before evaluation")
	ErrSizeInvariant          = errors.New("population size invariant violated")
)

// ConfigurationError is fatal and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientPopulationError reports a group size the population cannot satisfy.
type InsufficientPopulationError struct {
	Operator string
	Arity    int
	Size     int
}

func (e *InsufficientPopulationError) Error() string {
	name := e.Operator
	if name == "" {
		name = "iteration"
	}
	if e.Arity == WholePopulation {
		return fmt.Sprintf("%v: %s needs a non-empty population", ErrInsufficientPopulation, name)
	}
	return fmt.Sprintf("%v: %s needs groups of %d, population has %d", ErrInsufficientPopulation, name, e.Arity, e.Size)
}

func (e *InsufficientPopulationError) Unwrap() error {
	return ErrInsufficientPopulation
}

// ClashUnresolvedError names the individual two operators both changed.
type ClashUnresolvedError struct {
	Slot         int
	IndividualID string
	Operators    []string
}

func (e *ClashUnresolvedError) Error() string {
	return fmt.Sprintf("%v: individual %s (slot %d) changed by %s", ErrClashUnresolved, e.IndividualID, e.Slot, strings.Join(e.Operators, ", "))
}

func (e *ClashUnresolvedError) Unwrap() error {
	return ErrClashUnresolved
}
