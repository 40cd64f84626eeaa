package runtime

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach submits one task per item onto the pool's normal lane and waits
// for all of them, returning the first error encountered (if any), for any
// slice of work items.
func ForEach[I any](ctx context.Context, p *Pool, items []I, op func(context.Context, I) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, it := range items {
		it := it
		f := Submit[struct{}](p, Normal, func() (struct{}, error) {
			return struct{}{}, op(ctx, it)
		})
		g.Go(func() error {
			_, err := f.Get()
			return err
		})
	}
	return g.Wait()
}

// FanIn awaits a slice of already-submitted futures concurrently, collecting
// either every result or the first error.
func FanIn[T any](ctx context.Context, futures []*Future[T]) ([]T, error) {
	g, _ := errgroup.WithContext(ctx)
	results := make([]T, len(futures))
	for i, f := range futures {
		i, f := i, f
		g.Go(func() error {
			v, err := f.Get()
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
