// Package report holds evo.Reporter implementations: structured logging,
// run persistence, prometheus metrics and per-generation trackers.
package report

import (
	"context"
	"log/slog"

	"evokit/internal/evo"
)

// Log writes one structured record per generation.
type Log struct {
	logger *slog.Logger
	level  slog.Level
	runID  string
}

// NewLog logs generations at Info through logger, or slog.Default() when nil.
func NewLog(logger *slog.Logger, runID string) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, level: slog.LevelInfo, runID: runID}
}

// WithLevel returns a copy that logs at level.
func (l *Log) WithLevel(level slog.Level) *Log {
	out := *l
	out.level = level
	return &out
}

func (l *Log) Report(ctx context.Context, snapshot evo.Snapshot) error {
	s := snapshot.Summary
	l.logger.LogAttrs(ctx, l.level, "generation",
		slog.String("run_id", l.runID),
		slog.Int("generation", s.Generation),
		slog.Int("size", s.Size),
		slog.Float64("best", s.Best),
		slog.Float64("mean", s.Mean),
		slog.Float64("worst", s.Worst),
		slog.Int("diversity", s.Diversity),
		slog.Int("evaluations", s.Evaluations),
	)
	return nil
}
