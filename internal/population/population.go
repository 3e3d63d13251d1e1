package population

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

var (
	ErrPassInProgress = errors.New("population is locked by an iteration pass")
	ErrNilIndividual  = errors.New("individual is required")
)

// Population is an ordered collection of individuals. Order only matters for
// deterministic tie-breaking.
//
// While an iteration pass is open (BeginPass) the population rejects
// structural changes; reads stay available.
type Population struct {
	mu      sync.RWMutex
	members []*Individual
	passes  int
}

func New(members ...*Individual) *Population {
	out := make([]*Individual, 0, len(members))
	for _, m := range members {
		if m != nil {
			m.commit()
			out = append(out, m)
		}
	}
	return &Population{members: out}
}

func (p *Population) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.members)
}

func (p *Population) At(i int) *Individual {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.members[i]
}

// Members returns a snapshot of the current order.
func (p *Population) Members() []*Individual {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Individual, len(p.members))
	copy(out, p.members)
	return out
}

// All iterates over a snapshot taken when iteration starts.
func (p *Population) All() iter.Seq2[int, *Individual] {
	return func(yield func(int, *Individual) bool) {
		for i, m := range p.Members() {
			if !yield(i, m) {
				return
			}
		}
	}
}

// BeginPass opens an iteration pass and returns the function that closes it.
func (p *Population) BeginPass() (end func()) {
	p.mu.Lock()
	p.passes++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.passes--
			p.mu.Unlock()
		})
	}
}

func (p *Population) InPass() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.passes > 0
}

func (p *Population) Insert(ind *Individual) error {
	if ind == nil {
		return ErrNilIndividual
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passes > 0 {
		return ErrPassInProgress
	}
	ind.commit()
	p.members = append(p.members, ind)
	return nil
}

func (p *Population) Remove(i int) (*Individual, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passes > 0 {
		return nil, ErrPassInProgress
	}
	if i < 0 || i >= len(p.members) {
		return nil, fmt.Errorf("remove index %d out of range [0,%d)", i, len(p.members))
	}
	removed := p.members[i]
	p.members = append(p.members[:i], p.members[i+1:]...)
	return removed, nil
}

// Replace commits a new generation in one step.
func (p *Population) Replace(members []*Individual) error {
	for idx, m := range members {
		if m == nil {
			return fmt.Errorf("%w at index %d", ErrNilIndividual, idx)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passes > 0 {
		return ErrPassInProgress
	}
	next := make([]*Individual, len(members))
	for i, m := range members {
		m.commit()
		next[i] = m
	}
	p.members = next
	return nil
}

// Unevaluated lists members whose fitness cache is invalid, in population order.
func (p *Population) Unevaluated() []*Individual {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*Individual
	for _, m := range p.members {
		if !m.valid {
			out = append(out, m)
		}
	}
	return out
}

// Best returns the first member with the highest valid fitness.
func (p *Population) Best() (*Individual, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var best *Individual
	for _, m := range p.members {
		if !m.valid {
			continue
		}
		if best == nil || m.fitness > best.fitness {
			best = m
		}
	}
	return best, best != nil
}

// Diversity counts distinct genomes by fingerprint.
func (p *Population) Diversity() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	seen := make(map[string]struct{}, len(p.members))
	for _, m := range p.members {
		seen[m.genome.Fingerprint()] = struct{}{}
	}
	return len(seen)
}
