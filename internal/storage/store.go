package storage

import (
	"context"
	"errors"

	"evokit/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists run history outside the engine: run records, one summary
// per generation and the latest population snapshot of each run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first. A non-positive limit returns all.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	AppendSummary(ctx context.Context, runID string, summary model.GenerationSummary) error
	GetSummaries(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
	SavePopulation(ctx context.Context, snapshot model.PopulationSnapshot) error
	GetPopulation(ctx context.Context, runID string) (model.PopulationSnapshot, bool, error)
}
