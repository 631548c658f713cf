package taskpool

import (
	"context"
	"errors"
)

// ForEach applies fn to each item concurrently and returns the joined
// error over every failure (errors.Join), discarding the pool's
// placeholder results — adapted from the teacher's foreach.go, which
// builds error-only tasks and delegates to RunAll the same way.
func ForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error, opts ...Option) error {
	if len(items) == 0 {
		return nil
	}

	payloads := make([]any, len(items))
	for i, item := range items {
		payloads[i] = item
	}

	worker := SingleFunc[struct{}](func(ctx context.Context, payload any) (struct{}, error) {
		return struct{}{}, fn(ctx, payload.(T))
	})

	p, err := NewOptions[struct{}](worker, opts...)
	if err != nil {
		return err
	}

	results, err := p.Run(ctx, payloads)
	if err != nil {
		return err
	}
	defer results.Close()

	var errs []error
	for {
		_, itemErr, ok := results.Next()
		if itemErr != nil {
			errs = append(errs, itemErr)
		}
		if !ok {
			break
		}
	}

	return errors.Join(errs...)
}
