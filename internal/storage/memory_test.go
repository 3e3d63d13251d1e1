package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"evokit/internal/model"
)

func TestMemoryStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.SaveRun(ctx, model.RunRecord{ID: "run-1"}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got: %v", err)
	}
	if _, _, err := store.GetSummaries(ctx, "run-1"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got: %v", err)
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "run-1",
		Landscape:       "onemax",
		Seed:            7,
		State:           "converged",
		Generations:     4,
		BestFitness:     16,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if loaded != run {
		t.Fatalf("unexpected run: %+v", loaded)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, got ok=%t err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.SaveRun(ctx, model.RunRecord{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-c" || runs[2].ID != "run-a" {
		t.Fatalf("unexpected order: %+v", runs)
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(limited) != 2 || limited[1].ID != "run-b" {
		t.Fatalf("unexpected limited runs: %+v", limited)
	}
}

func TestMemoryStoreSummariesOrderedAndReplaced(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, s := range []model.GenerationSummary{
		{Generation: 2, Best: 5},
		{Generation: 0, Best: 1},
		{Generation: 1, Best: 3},
		{Generation: 1, Best: 4},
	} {
		if err := store.AppendSummary(ctx, "run-1", s); err != nil {
			t.Fatalf("append summary: %v", err)
		}
	}

	summaries, ok, err := store.GetSummaries(ctx, "run-1")
	if err != nil {
		t.Fatalf("get summaries: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted summaries")
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	for i, s := range summaries {
		if s.Generation != i {
			t.Fatalf("summary %d has generation %d", i, s.Generation)
		}
	}
	if summaries[1].Best != 4 {
		t.Fatalf("expected replaced generation 1 summary, got %+v", summaries[1])
	}

	if _, ok, err := store.GetSummaries(ctx, "run-2"); err != nil || ok {
		t.Fatalf("expected no summaries, got ok=%t err=%v", ok, err)
	}
}

func TestMemoryStorePopulationIsCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	snapshot := model.PopulationSnapshot{
		VersionedRecord: CurrentVersion(),
		RunID:           "run-1",
		Generation:      3,
		Members: []model.IndividualRecord{
			{ID: "a", Genome: "[true]", Encoding: "bits", Lineage: []string{"p"}},
		},
	}
	if err := store.SavePopulation(ctx, snapshot); err != nil {
		t.Fatalf("save population: %v", err)
	}
	snapshot.Members[0].Lineage[0] = "mutated"

	loaded, ok, err := store.GetPopulation(ctx, "run-1")
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted population")
	}
	if loaded.Generation != 3 || len(loaded.Members) != 1 {
		t.Fatalf("unexpected population: %+v", loaded)
	}
	if loaded.Members[0].Lineage[0] != "p" {
		t.Fatalf("stored population aliased caller slice: %+v", loaded.Members[0])
	}
}
