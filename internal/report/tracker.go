package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"evokit/internal/evo"
	"evokit/internal/genome"
	"evokit/internal/population"
)

// Extremes are the best and worst members of one generation.
type Extremes struct {
	Generation int
	Best       *population.Individual
	Worst      *population.Individual
}

// BestWorst keeps the best and worst individual of every generation.
type BestWorst struct {
	mu      sync.Mutex
	records []Extremes
}

func (b *BestWorst) Report(_ context.Context, snapshot evo.Snapshot) error {
	var best, worst *population.Individual
	var hi, lo float64
	for _, ind := range snapshot.Members {
		f, ok := ind.Fitness()
		if !ok {
			return fmt.Errorf("%w: individual %s", evo.ErrUnevaluated, ind.ID())
		}
		if best == nil || f > hi {
			best, hi = ind, f
		}
		if worst == nil || f < lo {
			worst, lo = ind, f
		}
	}
	if best == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, Extremes{Generation: snapshot.Summary.Generation, Best: best, Worst: worst})
	return nil
}

// Records returns the tracked generations in report order.
func (b *BestWorst) Records() []Extremes {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.records)
}

var ErrVariableLength = errors.New("diversity needs genomes of equal length")

// Diversity tracks Gini-Simpson gene diversity at every locus of
// fixed-length vector genomes: 1 minus the sum of squared allele
// frequencies. Alleles, when above 1, rescales the values so that a
// uniform spread over that many alleles reads as 1.
type Diversity struct {
	Alleles int

	mu      sync.Mutex
	history [][]float64
}

func (d *Diversity) Report(_ context.Context, snapshot evo.Snapshot) error {
	if len(snapshot.Members) == 0 {
		return nil
	}
	rows := make([][]any, len(snapshot.Members))
	for i, ind := range snapshot.Members {
		genes, err := loci(ind.Genome())
		if err != nil {
			return err
		}
		if i > 0 && len(genes) != len(rows[0]) {
			return ErrVariableLength
		}
		rows[i] = genes
	}

	n := float64(len(rows))
	scale := 1.0
	if d.Alleles > 1 {
		scale = float64(d.Alleles) / float64(d.Alleles-1)
	}
	div := make([]float64, len(rows[0]))
	for locus := range div {
		counts := make(map[any]int)
		for _, row := range rows {
			counts[row[locus]]++
		}
		v := 1.0
		for _, c := range counts {
			p := float64(c) / n
			v -= p * p
		}
		div[locus] = v * scale
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, div)
	return nil
}

// History returns per-locus diversity for each reported generation.
func (d *Diversity) History() [][]float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]float64, len(d.history))
	for i, row := range d.history {
		out[i] = slices.Clone(row)
	}
	return out
}

// Average returns the mean locus diversity of each reported generation.
func (d *Diversity) Average() []float64 {
	history := d.History()
	out := make([]float64, len(history))
	for i, row := range history {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		out[i] = sum / float64(len(row))
	}
	return out
}

func loci(g genome.Genome) ([]any, error) {
	switch v := g.(type) {
	case genome.Bits:
		return boxed(v), nil
	case genome.Ints:
		return boxed(v), nil
	case genome.Floats:
		return boxed(v), nil
	default:
		return nil, fmt.Errorf("%w: diversity over %T", genome.ErrGenomeMismatch, g)
	}
}

func boxed[T comparable](v genome.Vector[T]) []any {
	out := make([]any, len(v))
	for i, gene := range v {
		out[i] = gene
	}
	return out
}
