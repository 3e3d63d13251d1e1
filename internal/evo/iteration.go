package evo

import (
	"fmt"
	"iter"
	"math"
	"math/rand"
	"slices"

	"evokit/internal/population"
)

// Remainder decides what happens to members left over when the population
// size is not a multiple of the group size.
type Remainder int

const (
	RemainderDrop Remainder = iota
	RemainderWrap
	RemainderShort
)

func (r Remainder) String() string {
	switch r {
	case RemainderDrop:
		return "drop"
	case RemainderWrap:
		return "wrap"
	case RemainderShort:
		return "short"
	default:
		return fmt.Sprintf("remainder(%d)", int(r))
	}
}

func ParseRemainder(s string) (Remainder, error) {
	switch s {
	case "", "drop":
		return RemainderDrop, nil
	case "wrap":
		return RemainderWrap, nil
	case "short":
		return RemainderShort, nil
	default:
		return 0, configError("remainder", "unknown policy %q", s)
	}
}

// Group is one unit of work handed to an operator. Slots index the
// partitioned input; Short marks a trailing group smaller than the arity.
type Group struct {
	Slots   []int
	Members []*population.Individual
	Short   bool
}

// Iteration partitions a population snapshot into groups.
type Iteration interface {
	Arity() int
	Partition(members []*population.Individual, rng *rand.Rand) (*Partition, error)
}

// Partition yields groups lazily and may be consumed once.
type Partition struct {
	members []*population.Individual
	next    func() ([]int, bool, bool)
	done    bool
	yielded int
}

func newPartition(members []*population.Individual, next func() ([]int, bool, bool)) *Partition {
	return &Partition{members: slices.Clone(members), next: next}
}

// Next returns the next group, or false once the partition is exhausted.
func (p *Partition) Next() (Group, bool) {
	if p.done {
		return Group{}, false
	}
	slots, short, ok := p.next()
	if !ok {
		p.done = true
		return Group{}, false
	}
	p.yielded++
	group := Group{Slots: slots, Members: make([]*population.Individual, len(slots)), Short: short}
	for i, slot := range slots {
		group.Members[i] = p.members[slot]
	}
	return group, true
}

func (p *Partition) All() iter.Seq[Group] {
	return func(yield func(Group) bool) {
		for {
			group, ok := p.Next()
			if !ok || !yield(group) {
				return
			}
		}
	}
}

// Yielded is the number of groups handed out so far.
func (p *Partition) Yielded() int {
	return p.yielded
}

func checkArity(arity, size int) error {
	if arity < 1 {
		return configError("iteration", "invalid group size %d", arity)
	}
	if arity > size {
		return &InsufficientPopulationError{Arity: arity, Size: size}
	}
	return nil
}

func checkProbability(field string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return configError(field, "probability %v outside [0, 1]", p)
	}
	return nil
}

// order walks the slots in order, size at a time, applying the remainder
// policy to the tail. keep, when non-nil, decides per full group whether it
// is yielded.
func order(slots []int, size int, remainder Remainder, keep func() bool) func() ([]int, bool, bool) {
	pos := 0
	return func() ([]int, bool, bool) {
		for pos < len(slots) {
			start := pos
			end := start + size
			pos = end
			if end <= len(slots) {
				if keep != nil && !keep() {
					continue
				}
				return slices.Clone(slots[start:end]), false, true
			}
			switch remainder {
			case RemainderShort:
				if keep != nil && !keep() {
					continue
				}
				return slices.Clone(slots[start:]), true, true
			case RemainderWrap:
				if keep != nil && !keep() {
					continue
				}
				group := slices.Clone(slots[start:])
				for i := 0; len(group) < size; i++ {
					group = append(group, slots[i%len(slots)])
				}
				return group, false, true
			default:
				return nil, false, false
			}
		}
		return nil, false, false
	}
}

func identitySlots(n int) []int {
	slots := make([]int, n)
	for i := range slots {
		slots[i] = i
	}
	return slots
}

// Straight walks the population in order, Size members per group.
type Straight struct {
	Size      int
	Remainder Remainder
}

func (s Straight) Arity() int { return s.Size }

func (s Straight) Partition(members []*population.Individual, _ *rand.Rand) (*Partition, error) {
	if err := checkArity(s.Size, len(members)); err != nil {
		return nil, err
	}
	return newPartition(members, order(identitySlots(len(members)), s.Size, s.Remainder, nil)), nil
}

// Single yields every member on its own.
type Single struct{}

func (Single) Arity() int { return 1 }

func (Single) Partition(members []*population.Individual, rng *rand.Rand) (*Partition, error) {
	return Straight{Size: 1}.Partition(members, rng)
}

// Shuffled permutes the population once and then walks it like Straight.
type Shuffled struct {
	Size      int
	Remainder Remainder
}

func (s Shuffled) Arity() int { return s.Size }

func (s Shuffled) Partition(members []*population.Individual, rng *rand.Rand) (*Partition, error) {
	if err := checkArity(s.Size, len(members)); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, configError("iteration", "shuffled iteration requires a random source")
	}
	return newPartition(members, order(rng.Perm(len(members)), s.Size, s.Remainder, nil)), nil
}

// RandomStraight walks the population in order and keeps each group with
// the given probability.
type RandomStraight struct {
	Size        int
	Probability float64
	Remainder   Remainder
}

func (s RandomStraight) Arity() int { return s.Size }

func (s RandomStraight) Partition(members []*population.Individual, rng *rand.Rand) (*Partition, error) {
	if err := checkArity(s.Size, len(members)); err != nil {
		return nil, err
	}
	if err := checkProbability("iteration.probability", s.Probability); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, configError("iteration", "random iteration requires a random source")
	}
	keep := func() bool { return rng.Float64() < s.Probability }
	return newPartition(members, order(identitySlots(len(members)), s.Size, s.Remainder, keep)), nil
}

// RandomSingle yields each member on its own with the given probability.
type RandomSingle struct {
	Probability float64
}

func (RandomSingle) Arity() int { return 1 }

func (s RandomSingle) Partition(members []*population.Individual, rng *rand.Rand) (*Partition, error) {
	return RandomStraight{Size: 1, Probability: s.Probability}.Partition(members, rng)
}

// Batches draws Total groups of Size distinct members. Members inside a
// group keep population order. Total defaults to the population size.
type Batches struct {
	Size  int
	Total int
}

func (b Batches) Arity() int { return b.Size }

func (b Batches) Partition(members []*population.Individual, rng *rand.Rand) (*Partition, error) {
	if err := checkArity(b.Size, len(members)); err != nil {
		return nil, err
	}
	if b.Total < 0 {
		return nil, configError("iteration.total", "must be >= 0, got %d", b.Total)
	}
	if rng == nil {
		return nil, configError("iteration", "batch iteration requires a random source")
	}
	total := b.Total
	if total == 0 {
		total = len(members)
	}
	drawn := 0
	return newPartition(members, func() ([]int, bool, bool) {
		if drawn >= total {
			return nil, false, false
		}
		drawn++
		slots := rng.Perm(len(members))[:b.Size]
		slices.Sort(slots)
		return slots, false, true
	}), nil
}

// Whole hands the entire population over as one group.
type Whole struct{}

func (Whole) Arity() int { return WholePopulation }

func (Whole) Partition(members []*population.Individual, _ *rand.Rand) (*Partition, error) {
	if len(members) == 0 {
		return nil, &InsufficientPopulationError{Arity: WholePopulation, Size: 0}
	}
	done := false
	slots := identitySlots(len(members))
	return newPartition(members, func() ([]int, bool, bool) {
		if done {
			return nil, false, false
		}
		done = true
		return slots, false, true
	}), nil
}
