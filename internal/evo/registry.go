package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists       = errors.New("operator already registered")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrOperatorIncompatible = errors.New("operator does not belong to the requested family")
)

// Factory builds an operator instance from its parameters.
type Factory func(params Params) (Operator, error)

type OperatorSpec struct {
	Name        string
	Family      Family
	Description string
	Build       Factory
}

type registryKey struct {
	family Family
	name   string
}

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[registryKey]OperatorSpec
}{
	m: make(map[registryKey]OperatorSpec),
}

// RegisterOperator makes a named operator constructor available to
// configuration files.
func RegisterOperator(spec OperatorSpec) error {
	if spec.Name == "" {
		return errors.New("operator name is required")
	}
	if spec.Build == nil {
		return errors.New("operator factory is required")
	}
	if spec.Family < FamilySelection || spec.Family > FamilyClash {
		return fmt.Errorf("operator %s: unknown family %d", spec.Name, spec.Family)
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	key := registryKey{family: spec.Family, name: spec.Name}
	if _, exists := operatorRegistry.m[key]; exists {
		return fmt.Errorf("%w: %s/%s", ErrOperatorExists, spec.Family, spec.Name)
	}
	operatorRegistry.m[key] = spec
	return nil
}

// BuildOperator constructs the operator registered under family and name.
func BuildOperator(family Family, name string, params Params) (Operator, error) {
	operatorRegistry.mu.RLock()
	spec, ok := operatorRegistry.m[registryKey{family: family, name: name}]
	operatorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrOperatorNotFound, family, name)
	}
	op, err := spec.Build(params)
	if err != nil {
		return nil, fmt.Errorf("build %s/%s: %w", family, name, err)
	}
	if got := op.Descriptor().Family; got != family {
		return nil, fmt.Errorf("%w: %s built a %s operator", ErrOperatorIncompatible, name, got)
	}
	return op, nil
}

func BuildSelector(name string, params Params) (Selector, error) {
	op, err := BuildOperator(FamilySelection, name, params)
	if err != nil {
		return nil, err
	}
	sel, ok := op.(Selector)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a selector", ErrOperatorIncompatible, name)
	}
	return sel, nil
}

// BuildVariation constructs a reproduction or mutation operator bound for a
// stage.
func BuildVariation(family Family, name string, params Params) (Variation, error) {
	op, err := BuildOperator(family, name, params)
	if err != nil {
		return Variation{}, err
	}
	switch family {
	case FamilyReproduction:
		r, ok := op.(Reproducer)
		if !ok {
			return Variation{}, fmt.Errorf("%w: %s is not a reproducer", ErrOperatorIncompatible, name)
		}
		return Reproduce(r), nil
	case FamilyMutation:
		m, ok := op.(Mutator)
		if !ok {
			return Variation{}, fmt.Errorf("%w: %s is not a mutator", ErrOperatorIncompatible, name)
		}
		return Mutate(m), nil
	default:
		return Variation{}, fmt.Errorf("%w: %s operators cannot run in a stage", ErrOperatorIncompatible, family)
	}
}

func BuildIntegrator(name string, params Params) (Integrator, error) {
	op, err := BuildOperator(FamilyIntegration, name, params)
	if err != nil {
		return nil, err
	}
	in, ok := op.(Integrator)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an integrator", ErrOperatorIncompatible, name)
	}
	return in, nil
}

func BuildArbiter(name string, params Params) (Arbiter, error) {
	op, err := BuildOperator(FamilyClash, name, params)
	if err != nil {
		return nil, err
	}
	a, ok := op.(Arbiter)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an arbiter", ErrOperatorIncompatible, name)
	}
	return a, nil
}

// ListOperators returns the registered specs of family sorted by name. A
// zero family lists every family.
func ListOperators(family Family) []OperatorSpec {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	specs := make([]OperatorSpec, 0, len(operatorRegistry.m))
	for key, spec := range operatorRegistry.m {
		if family != 0 && key.family != family {
			continue
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Family != specs[j].Family {
			return specs[i].Family < specs[j].Family
		}
		return specs[i].Name < specs[j].Name
	})
	return specs
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	operatorRegistry.m = make(map[registryKey]OperatorSpec)
	registerBuiltins()
}
