package report

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"evokit/internal/evo"
)

const metricsNamespace = "evokit"

// Metrics holds the prometheus collectors shared by all runs of one
// registry. Every series is labelled with the run id.
type Metrics struct {
	// GenerationsTotal counts completed generations, excluding the seed.
	GenerationsTotal *prometheus.CounterVec
	// EvaluationsTotal counts evaluator calls, including the seed.
	EvaluationsTotal *prometheus.CounterVec
	// Fitness reports the generation statistics.
	// Labels: run, stat (best, worst, mean, median, std_dev)
	Fitness *prometheus.GaugeVec
	// Diversity is the number of distinct genomes in the population.
	Diversity *prometheus.GaugeVec
	// PopulationSize is the committed population size.
	PopulationSize *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generations_total",
			Help:      "Completed generations per run",
		}, []string{"run"}),
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evaluations_total",
			Help:      "Fitness evaluations per run",
		}, []string{"run"}),
		Fitness: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "fitness",
			Help:      "Fitness statistics of the latest generation",
		}, []string{"run", "stat"}),
		Diversity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "population_diversity",
			Help:      "Distinct genomes in the latest generation",
		}, []string{"run"}),
		PopulationSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "population_size",
			Help:      "Members of the latest generation",
		}, []string{"run"}),
	}
}

// ForRun returns a reporter that updates the series of runID.
func (m *Metrics) ForRun(runID string) *Prometheus {
	return &Prometheus{metrics: m, runID: runID}
}

type Prometheus struct {
	metrics *Metrics
	runID   string
}

func (p *Prometheus) Report(_ context.Context, snapshot evo.Snapshot) error {
	s := snapshot.Summary
	m := p.metrics
	if s.Generation > 0 {
		m.GenerationsTotal.WithLabelValues(p.runID).Inc()
	}
	m.EvaluationsTotal.WithLabelValues(p.runID).Add(float64(s.Evaluations))
	m.Fitness.WithLabelValues(p.runID, "best").Set(s.Best)
	m.Fitness.WithLabelValues(p.runID, "worst").Set(s.Worst)
	m.Fitness.WithLabelValues(p.runID, "mean").Set(s.Mean)
	m.Fitness.WithLabelValues(p.runID, "median").Set(s.Median)
	m.Fitness.WithLabelValues(p.runID, "std_dev").Set(s.StdDev)
	m.Diversity.WithLabelValues(p.runID).Set(float64(s.Diversity))
	m.PopulationSize.WithLabelValues(p.runID).Set(float64(s.Size))
	return nil
}
