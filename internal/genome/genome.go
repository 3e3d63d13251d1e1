package genome

import (
	"errors"
	"fmt"
	"strings"
)

var ErrGenomeMismatch = errors.New("genome type mismatch")

// Genome is the opaque solution payload carried by an individual. The engine
// never looks inside it; operators that need structure assert one of the
// narrower interfaces below.
type Genome interface {
	Clone() Genome
	Equal(other Genome) bool
	Fingerprint() string
}

// Sequence is a fixed-position genome that supports positional recombination.
// Exchange and Take mutate the receiver, so callers operate on clones.
type Sequence interface {
	Genome
	Len() int
	Exchange(other Sequence, from, to int) error
	Take(other Sequence, index int) error
}

// Metric genomes can report a distance to another genome of the same type.
type Metric interface {
	Genome
	Distance(other Genome) (float64, error)
}

// Vector is a sequence genome over comparable genes.
type Vector[T comparable] []T

type (
	Bits   = Vector[bool]
	Ints   = Vector[int]
	Floats = Vector[float64]
)

func (v Vector[T]) Clone() Genome {
	out := make(Vector[T], len(v))
	copy(out, v)
	return out
}

func (v Vector[T]) Equal(other Genome) bool {
	o, ok := other.(Vector[T])
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

func (v Vector[T]) Fingerprint() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, gene := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, gene)
	}
	b.WriteByte(']')
	return b.String()
}

func (v Vector[T]) Len() int {
	return len(v)
}

func (v Vector[T]) Exchange(other Sequence, from, to int) error {
	o, ok := other.(Vector[T])
	if !ok {
		return fmt.Errorf("%w: exchange %T with %T", ErrGenomeMismatch, v, other)
	}
	if from < 0 || to > len(v) || to > len(o) || from > to {
		return fmt.Errorf("exchange segment [%d,%d) out of range for lengths %d/%d", from, to, len(v), len(o))
	}
	for i := from; i < to; i++ {
		v[i], o[i] = o[i], v[i]
	}
	return nil
}

func (v Vector[T]) Take(other Sequence, index int) error {
	o, ok := other.(Vector[T])
	if !ok {
		return fmt.Errorf("%w: take from %T into %T", ErrGenomeMismatch, other, v)
	}
	if index < 0 || index >= len(v) || index >= len(o) {
		return fmt.Errorf("gene index %d out of range for lengths %d/%d", index, len(v), len(o))
	}
	v[index] = o[index]
	return nil
}

// Distance is the Hamming distance between two vectors of equal length.
func (v Vector[T]) Distance(other Genome) (float64, error) {
	o, ok := other.(Vector[T])
	if !ok {
		return 0, fmt.Errorf("%w: distance %T to %T", ErrGenomeMismatch, v, other)
	}
	if len(o) != len(v) {
		return 0, fmt.Errorf("distance requires equal lengths, got %d and %d", len(v), len(o))
	}
	d := 0
	for i := range v {
		if v[i] != o[i] {
			d++
		}
	}
	return float64(d), nil
}
