package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one dataset in a batch.
type Result struct {
	Identifier string
	Report     domain.RunReport
	Err        error
}

// RunAll runs every dataset with at most limit runs in flight. A failing
// dataset does not stop the others. Results keep the order of datasets; the
// returned error joins every failure.
func (p *Pipeline) RunAll(ctx context.Context, datasets []domain.Dataset, limit int) ([]Result, error) {
	ids := make([]string, len(datasets))
	for i, ds := range datasets {
		ids[i] = ds.ID
	}
	return runAll(ids, limit, func(i int) (domain.RunReport, error) {
		return p.Run(ctx, datasets[i])
	})
}

// RenormalizeAll rebuilds the cleaned artifacts of ids from their raw
// artifacts with at most limit runs in flight.
func (p *Pipeline) RenormalizeAll(ctx context.Context, ids []string, limit int) ([]Result, error) {
	return runAll(ids, limit, func(i int) (domain.RunReport, error) {
		return p.Renormalize(ctx, ids[i])
	})
}

func runAll(ids []string, limit int, run func(i int) (domain.RunReport, error)) ([]Result, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]Result, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			report, err := run(i)
			results[i] = Result{Identifier: id, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}
