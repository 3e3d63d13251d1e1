// Package evokit runs configured evolution experiments and serves their
// stored history.
package evokit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"evokit/internal/config"
	"evokit/internal/evo"
	"evokit/internal/genome"
	"evokit/internal/model"
	"evokit/internal/population"
	"evokit/internal/report"
	"evokit/internal/stats"
	"evokit/internal/storage"
)

const defaultDBPath = "evokit.db"

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
	// Registerer receives run metrics. Nil disables metrics.
	Registerer prometheus.Registerer
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *report.Metrics

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	// RunID names the run; a random id is used when empty.
	RunID  string
	Config config.Run
	// Reporters receive every generation after the built-in ones.
	Reporters []evo.Reporter
}

type RunSummary struct {
	RunID       string
	State       string
	Reason      string
	Generations int
	BestFitness float64
	BestGenome  string
	History     []model.GenerationSummary
	// GeneDiversity is the mean locus diversity of each generation.
	GeneDiversity []float64
	Duration      time.Duration
}

type RunItem struct {
	RunID       string
	Landscape   string
	Seed        int64
	State       string
	Reason      string
	Generations int
	BestFitness float64
	StartedAt   time.Time
	FinishedAt  time.Time
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{store: store, logger: logger}
	if opts.Registerer != nil {
		c.metrics = report.NewMetrics(opts.Registerer)
	}
	return c, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run evolves the configured experiment to completion and records it. A run
// that stops on an error is still recorded and its summary returned along
// with the error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := req.Config.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}
	cfg, init, err := req.Config.Build()
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := c.logger.With(slog.String("run_id", runID))

	genomes, err := genome.Generate(req.Config.Population, init, rand.New(rand.NewSource(req.Config.Seed)))
	if err != nil {
		return RunSummary{}, fmt.Errorf("seed population: %w", err)
	}
	seed := make([]*population.Individual, len(genomes))
	for i, g := range genomes {
		seed[i] = population.NewIndividual(g)
	}

	record := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		Landscape:       req.Config.Genome.Landscape,
		Seed:            req.Config.Seed,
		State:           evo.StateRunning.String(),
		StartedAt:       time.Now().UTC(),
	}

	storeReporter := report.NewStore(c.store, runID)
	storeReporter.SkipPopulation = req.Config.History.SkipPopulation
	diversity := &report.Diversity{}
	reporters := []evo.Reporter{
		report.NewLog(logger, runID).WithLevel(slog.LevelDebug),
		storeReporter,
		diversity,
	}
	if c.metrics != nil {
		reporters = append(reporters, c.metrics.ForRun(runID))
	}
	cfg.Reporters = append(reporters, req.Reporters...)
	cfg.Logger = logger

	// The process is built before the run is recorded so that a rejected
	// pipeline never leaves a run behind in the running state.
	proc, err := evo.NewProcess(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	res, runErr := proc.Run(ctx, seed)

	record.State = res.State.String()
	record.Reason = res.Reason
	record.Generations = res.Generations
	record.FinishedAt = time.Now().UTC()
	if runErr != nil {
		record.Error = runErr.Error()
	}
	summary := RunSummary{
		RunID:         runID,
		State:         record.State,
		Reason:        res.Reason,
		Generations:   res.Generations,
		History:       res.History,
		GeneDiversity: diversity.Average(),
		Duration:      record.FinishedAt.Sub(record.StartedAt),
	}
	if res.Best != nil {
		record.BestFitness, _ = res.Best.Fitness()
		summary.BestFitness = record.BestFitness
		if _, data, err := genome.Encode(res.Best.Genome()); err == nil {
			summary.BestGenome = data
		}
	}
	if err := c.store.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		return summary, errors.Join(runErr, fmt.Errorf("save run %s: %w", runID, err))
	}
	return summary, runErr
}

// Runs lists recorded runs newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:       r.ID,
			Landscape:   r.Landscape,
			Seed:        r.Seed,
			State:       r.State,
			Reason:      r.Reason,
			Generations: r.Generations,
			BestFitness: r.BestFitness,
			StartedAt:   r.StartedAt,
			FinishedAt:  r.FinishedAt,
		})
	}
	return out, nil
}

// Summaries returns the per-generation history of runID. An empty runID
// selects the latest run.
func (c *Client) Summaries(ctx context.Context, runID string) ([]model.GenerationSummary, error) {
	runID, err := c.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}
	summaries, ok, err := c.store.GetSummaries(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no summaries for %s", ErrRunNotFound, runID)
	}
	return summaries, nil
}

// Population returns the last stored population of runID, fittest first.
// A positive limit truncates the list. An empty runID selects the latest run.
func (c *Client) Population(ctx context.Context, runID string, limit int) (model.PopulationSnapshot, error) {
	runID, err := c.resolve(ctx, runID)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	snapshot, ok, err := c.store.GetPopulation(ctx, runID)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	if !ok {
		return model.PopulationSnapshot{}, fmt.Errorf("%w: no population for %s", ErrRunNotFound, runID)
	}
	sort.SliceStable(snapshot.Members, func(i, j int) bool {
		a, b := snapshot.Members[i], snapshot.Members[j]
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Fitness > b.Fitness
	})
	if limit > 0 && len(snapshot.Members) > limit {
		snapshot.Members = snapshot.Members[:limit]
	}
	return snapshot, nil
}

// Export writes the stored record, history and last population of runID
// under outDir/<run id> and returns that directory. An empty runID selects
// the latest run.
func (c *Client) Export(ctx context.Context, runID, outDir string) (string, error) {
	runID, err := c.resolve(ctx, runID)
	if err != nil {
		return "", err
	}
	run, _, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	summaries, _, err := c.store.GetSummaries(ctx, runID)
	if err != nil {
		return "", err
	}
	artifacts := stats.RunArtifacts{Run: run, Summaries: summaries}
	snapshot, ok, err := c.store.GetPopulation(ctx, runID)
	if err != nil {
		return "", err
	}
	if ok {
		artifacts.Population = &snapshot
	}
	return stats.WriteRunArtifacts(outDir, artifacts)
}

func (c *Client) resolve(ctx context.Context, runID string) (string, error) {
	if err := c.ensureStore(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		if _, ok, err := c.store.GetRun(ctx, runID); err != nil {
			return "", err
		} else if !ok {
			return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return runID, nil
	}
	runs, err := c.store.ListRuns(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
	}
	return runs[0].ID, nil
}

// Operators lists the registered operators of family, or of every family
// when family is empty.
func Operators(family string) ([]evo.OperatorSpec, error) {
	if family == "" {
		return evo.ListOperators(0), nil
	}
	f, err := evo.ParseFamily(family)
	if err != nil {
		return nil, err
	}
	return evo.ListOperators(f), nil
}
