package population

import (
	"github.com/google/uuid"

	"evokit/internal/genome"
)

// Individual is one candidate solution with its cached fitness and lineage.
//
// The fitness cache is only readable through Fitness, which reports whether
// the cache was computed against the current genome. Operators never change
// a genome in place: variation builds a new Individual through Derive or
// NewOffspring, which is always born unevaluated.
type Individual struct {
	id      string
	genome  genome.Genome
	fitness float64
	valid   bool
	lineage []string
	born    int
	// committed is set once a population has held the individual.
	committed bool
}

// NewIndividual wraps a seed genome. The individual owns g from now on.
func NewIndividual(g genome.Genome) *Individual {
	return &Individual{
		id:     uuid.NewString(),
		genome: g,
	}
}

// NewOffspring builds an unevaluated child of parents born in generation.
// A parent that was itself produced by variation and never committed to a
// population passes its own lineage on instead of its identity, so chained
// stages record the committed ancestors.
func NewOffspring(g genome.Genome, generation int, parents ...*Individual) *Individual {
	lineage := make([]string, 0, len(parents))
	seen := make(map[string]struct{}, len(parents))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		lineage = append(lineage, id)
	}
	for _, parent := range parents {
		if parent == nil {
			continue
		}
		if parent.transient() {
			for _, id := range parent.lineage {
				add(id)
			}
			continue
		}
		add(parent.id)
	}
	return &Individual{
		id:      uuid.NewString(),
		genome:  g,
		lineage: lineage,
		born:    generation,
	}
}

func (i *Individual) ID() string {
	return i.id
}

// Genome returns the payload. Callers must Clone it before changing it.
func (i *Individual) Genome() genome.Genome {
	return i.genome
}

// Fitness returns the cached fitness and whether it is valid for the current genome.
func (i *Individual) Fitness() (float64, bool) {
	if !i.valid {
		return 0, false
	}
	return i.fitness, true
}

func (i *Individual) Valid() bool {
	return i.valid
}

// SetFitness records an evaluation result. Only the evaluation boundary calls it.
func (i *Individual) SetFitness(fitness float64) {
	i.fitness = fitness
	i.valid = true
}

// Lineage returns the parent identifiers.
func (i *Individual) Lineage() []string {
	out := make([]string, len(i.lineage))
	copy(out, i.lineage)
	return out
}

// Born is the generation the individual was created in; seeds are born in 0.
func (i *Individual) Born() int {
	return i.born
}

// transient reports whether i was born from parents during the current step
// and has not been committed yet.
func (i *Individual) transient() bool {
	return !i.committed && len(i.lineage) > 0
}

func (i *Individual) commit() {
	i.committed = true
}

// Derive creates an unevaluated child of i carrying g.
func (i *Individual) Derive(g genome.Genome, generation int) *Individual {
	return NewOffspring(g, generation, i)
}

// Copy duplicates i under a new identity. The genome is cloned unchanged, so
// the fitness cache stays valid.
func (i *Individual) Copy(generation int) *Individual {
	child := NewOffspring(i.genome.Clone(), generation, i)
	child.fitness = i.fitness
	child.valid = i.valid
	return child
}
