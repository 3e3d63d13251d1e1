package report

import (
	"context"
	"errors"

	"evokit/internal/evo"
)

// Multi fans a snapshot out to every reporter and joins their errors.
type Multi []evo.Reporter

func (m Multi) Report(ctx context.Context, snapshot evo.Snapshot) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
