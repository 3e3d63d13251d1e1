package evokit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"evokit/internal/config"
	"evokit/internal/evo"
	"evokit/internal/stats"
	"evokit/internal/storage"
)

func oneMaxRun(length int) config.Run {
	target := float64(length)
	return config.Run{
		Name:       "test",
		Seed:       11,
		Population: 12,
		Genome:     config.Genome{Landscape: "onemax", Length: length},
		Selection:  &config.Operator{Name: "tournament", Params: map[string]any{"size": 3}},
		Stages: []config.Stage{
			{Operators: []config.StageOperator{{Family: "reproduction", Operator: config.Operator{Name: "crossover"}}}},
			{Operators: []config.StageOperator{{Family: "mutation", Operator: config.Operator{Name: "bit_flip", Params: map[string]any{"rate": 0.1}}}}},
		},
		Integration: &config.Operator{Name: "elitist", Params: map[string]any{"elites": 2}},
		Termination: config.Termination{MaxGenerations: 15, TargetFitness: &target},
	}
}

func newMemoryClient(t *testing.T, reg prometheus.Registerer) *Client {
	t.Helper()

	client, err := New(Options{StoreKind: storage.KindMemory, Registerer: reg})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunRecordsHistory(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	client := newMemoryClient(t, reg)

	var reported atomic.Int32
	summary, err := client.Run(ctx, RunRequest{
		RunID:  "run-1",
		Config: oneMaxRun(8),
		Reporters: []evo.Reporter{evo.ReporterFunc(func(context.Context, evo.Snapshot) error {
			reported.Add(1)
			return nil
		})},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-1" {
		t.Fatalf("unexpected run id: %s", summary.RunID)
	}
	if summary.State != evo.StateConverged.String() && summary.State != evo.StateMaxGenerationsReached.String() {
		t.Fatalf("unexpected terminal state: %s", summary.State)
	}
	if len(summary.History) != summary.Generations+1 {
		t.Fatalf("history has %d entries for %d generations", len(summary.History), summary.Generations)
	}
	if int(reported.Load()) != len(summary.History) {
		t.Fatalf("extra reporter saw %d generations, want %d", reported.Load(), len(summary.History))
	}
	if len(summary.GeneDiversity) != len(summary.History) {
		t.Fatalf("gene diversity has %d entries, want %d", len(summary.GeneDiversity), len(summary.History))
	}
	if summary.BestGenome == "" {
		t.Fatal("expected encoded best genome")
	}

	runs, err := client.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" || runs[0].State != summary.State {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].BestFitness != summary.BestFitness || runs[0].FinishedAt.IsZero() {
		t.Fatalf("run record not finalised: %+v", runs[0])
	}

	summaries, err := client.Summaries(ctx, "")
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != len(summary.History) {
		t.Fatalf("stored %d summaries, want %d", len(summaries), len(summary.History))
	}

	snapshot, err := client.Population(ctx, "run-1", 3)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if len(snapshot.Members) != 3 || snapshot.Generation != summary.Generations {
		t.Fatalf("unexpected population: %+v", snapshot)
	}
	if snapshot.Members[0].Fitness != summary.BestFitness {
		t.Fatalf("expected fittest member first, got %v want %v", snapshot.Members[0].Fitness, summary.BestFitness)
	}

	gens := testutil.ToFloat64(client.metrics.GenerationsTotal.WithLabelValues("run-1"))
	if int(gens) != summary.Generations {
		t.Fatalf("generations_total = %v, want %d", gens, summary.Generations)
	}
}

func TestClientRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t, nil)

	first, err := client.Run(ctx, RunRequest{Config: oneMaxRun(10)})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := client.Run(ctx, RunRequest{Config: oneMaxRun(10)})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected distinct generated run ids")
	}
	if len(first.History) != len(second.History) {
		t.Fatalf("history lengths differ: %d vs %d", len(first.History), len(second.History))
	}
	for i := range first.History {
		if first.History[i] != second.History[i] {
			t.Fatalf("generation %d differs:\n%+v\n%+v", i, first.History[i], second.History[i])
		}
	}
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client := newMemoryClient(t, nil)
	run := oneMaxRun(8)
	run.Population = 0

	_, err := client.Run(context.Background(), RunRequest{Config: run})
	if !errors.Is(err, evo.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got: %v", err)
	}
	runs, err := client.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("invalid run must not be recorded: %+v", runs)
	}
}

func TestClientRunRejectedPipelineLeavesNoRunningRecord(t *testing.T) {
	client := newMemoryClient(t, nil)
	run := oneMaxRun(8)
	run.Termination = config.Termination{}

	_, err := client.Run(context.Background(), RunRequest{RunID: "no-stop", Config: run})
	if !errors.Is(err, evo.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got: %v", err)
	}
	runs, err := client.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	for _, r := range runs {
		if r.State == evo.StateRunning.String() {
			t.Fatalf("rejected run left a running record: %+v", r)
		}
	}
	if _, err := client.Summaries(context.Background(), "no-stop"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got: %v", err)
	}
}

func TestClientRunRecordsStoppedRuns(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t, nil)
	run := oneMaxRun(8)
	run.Selection = &config.Operator{Name: "truncation", Params: map[string]any{"keep": 20}}
	run.Termination.TargetFitness = nil

	summary, err := client.Run(ctx, RunRequest{RunID: "broken", Config: run})
	if !errors.Is(err, evo.ErrInsufficientPopulation) {
		t.Fatalf("expected ErrInsufficientPopulation, got: %v", err)
	}
	if summary.State != evo.StateStopped.String() || summary.Reason != evo.ReasonError {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	runs, err := client.Runs(ctx, 1)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].State != evo.StateStopped.String() {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if _, err := client.Population(ctx, "broken", 0); err != nil {
		t.Fatalf("expected seed population to be stored: %v", err)
	}
}

func TestClientLookupsReportMissingRuns(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t, nil)

	if _, err := client.Summaries(ctx, ""); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got: %v", err)
	}
	if _, err := client.Population(ctx, "missing", 0); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got: %v", err)
	}
}

func TestClientExportLatestRun(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient(t, nil)

	summary, err := client.Run(ctx, RunRequest{RunID: "export-me", Config: oneMaxRun(6)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	dir, err := client.Export(ctx, "", t.TempDir())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(dir) != "export-me" {
		t.Fatalf("unexpected export dir: %s", dir)
	}
	history, ok, err := stats.ReadHistory(filepath.Join(dir, stats.HistoryFile))
	if err != nil || !ok {
		t.Fatalf("read history: ok=%t err=%v", ok, err)
	}
	if len(history) != len(summary.History) {
		t.Fatalf("exported %d summaries, run had %d", len(history), len(summary.History))
	}
	if _, err := os.Stat(filepath.Join(dir, stats.PopulationFile)); err != nil {
		t.Fatalf("expected population file: %v", err)
	}

	if _, err := client.Export(ctx, "missing", t.TempDir()); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got: %v", err)
	}
}

func TestOperators(t *testing.T) {
	all, err := Operators("")
	if err != nil {
		t.Fatalf("operators: %v", err)
	}
	mutations, err := Operators("mutation")
	if err != nil {
		t.Fatalf("mutation operators: %v", err)
	}
	if len(mutations) == 0 || len(mutations) >= len(all) {
		t.Fatalf("unexpected operator counts: %d mutation, %d total", len(mutations), len(all))
	}
	if _, err := Operators("teleport"); !errors.Is(err, evo.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got: %v", err)
	}
}
