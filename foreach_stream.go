package taskpool

import "context"

// ForEachStream applies fn to each item from in concurrently and returns
// an errors channel carrying per-item failures — adapted from the
// teacher's foreach_stream.go, re-pointed at Pool[struct{}].RunSeq.
func ForEachStream[T any](ctx context.Context, in <-chan T, fn func(context.Context, T) error, opts ...Option) (<-chan error, error) {
	worker := SingleFunc[struct{}](func(ctx context.Context, payload any) (struct{}, error) {
		return struct{}{}, fn(ctx, payload.(T))
	})

	p, err := NewOptions[struct{}](worker, opts...)
	if err != nil {
		return nil, err
	}

	results, err := p.RunSeq(ctx, chanSeq(ctx, in), -1)
	if err != nil {
		return nil, err
	}

	errs := make(chan error)
	go func() {
		defer close(errs)
		defer results.Close()

		for {
			_, itemErr, ok := results.Next()
			if itemErr != nil {
				select {
				case errs <- itemErr:
				case <-ctx.Done():
					return
				}
			}
			if !ok {
				return
			}
		}
	}()

	return errs, nil
}
