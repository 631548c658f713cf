package taskpool

import (
	"context"
	"errors"
)

// Map fans out items through fn across a freshly built Pool and returns
// every result alongside a joined error (errors.Join of every per-item
// failure plus any fatal stream error), adapted from the teacher's
// map.go/run_all.go pair (Map delegates to RunAll, which collects
// errors.Join over every task). Results follow the pool's ordering
// (ascending input order by default; pass WithUnordered to relax it).
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...Option) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	payloads := make([]any, len(items))
	for i, item := range items {
		payloads[i] = item
	}

	worker := SingleFunc[R](func(ctx context.Context, payload any) (R, error) {
		return fn(ctx, payload.(T))
	})

	p, err := NewOptions[R](worker, opts...)
	if err != nil {
		return nil, err
	}

	results, err := p.Run(ctx, payloads)
	if err != nil {
		return nil, err
	}
	defer results.Close()

	var (
		values []R
		errs   []error
	)
	for {
		v, itemErr, ok := results.Next()
		if itemErr != nil {
			errs = append(errs, itemErr)
		}
		if !ok {
			break
		}
		values = append(values, v)
	}

	return values, errors.Join(errs...)
}
