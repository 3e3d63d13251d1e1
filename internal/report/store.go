package report

import (
	"context"
	"fmt"

	"evokit/internal/evo"
	"evokit/internal/storage"
)

// Store persists every generation summary and keeps the latest population
// snapshot of a run.
type Store struct {
	backend storage.Store
	runID   string
	// SkipPopulation disables population snapshots; summaries are still saved.
	SkipPopulation bool
}

func NewStore(backend storage.Store, runID string) *Store {
	return &Store{backend: backend, runID: runID}
}

func (s *Store) Report(ctx context.Context, snapshot evo.Snapshot) error {
	if err := s.backend.AppendSummary(ctx, s.runID, snapshot.Summary); err != nil {
		return fmt.Errorf("append summary for generation %d: %w", snapshot.Summary.Generation, err)
	}
	if s.SkipPopulation {
		return nil
	}
	record, err := storage.Snapshot(s.runID, snapshot.Summary.Generation, snapshot.Members)
	if err != nil {
		return fmt.Errorf("snapshot generation %d: %w", snapshot.Summary.Generation, err)
	}
	if err := s.backend.SavePopulation(ctx, record); err != nil {
		return fmt.Errorf("save population for generation %d: %w", snapshot.Summary.Generation, err)
	}
	return nil
}
