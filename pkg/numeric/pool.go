package numeric

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 4

// Pool is a fixed-size worker pool for embarrassingly parallel map
// operations over float slices. It exists so the orchestrator can create
// one pool per run and hand it to every estimator, instead of each call
// spinning up its own workers.
//
// Map results align index-for-index with their inputs, and the first
// task failure cancels the remaining tasks and fails the whole batch.
type Pool struct {
	workers int
}

// NewPool returns a pool with the given worker count. Non-positive
// counts fall back to DefaultWorkers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{workers: workers}
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Map applies f to every element of xs concurrently and returns the
// results in input order. If any invocation returns an error, the batch
// fails with that error and no partial results are returned.
func (p *Pool) Map(xs []float64, f func(float64) (float64, error)) ([]float64, error) {
	out := make([]float64, len(xs))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(p.workers)
	for i, x := range xs {
		i, x := i, x
		g.Go(func() error {
			y, err := f(x)
			if err != nil {
				return err
			}
			out[i] = y
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
