package taskpool

import "context"

// chanSeq adapts a receive channel into an iter.Seq[any], stopping on
// ctx cancellation or channel close — the bridge every *Stream function
// uses to feed RunSeq from a live channel instead of a materialized
// slice.
func chanSeq[T any](ctx context.Context, in <-chan T) func(yield func(any) bool) {
	return func(yield func(any) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if !yield(v) {
					return
				}
			}
		}
	}
}

// MapStream consumes items from in, applies fn concurrently, and returns
// the pool's results and errors as two channels — adapted from the
// teacher's map_stream.go (same forwarder-goroutine shape, re-pointed at
// Pool[R].RunSeq instead of AddTask/GetResults/GetErrors). A non-nil
// returned error means setup itself failed (e.g. invalid options); once
// streaming starts, per-item failures arrive on the errors channel and a
// fatal stream error (IMMEDIATE/DEFERRED) arrives as its final value.
func MapStream[T, R any](ctx context.Context, in <-chan T, fn func(context.Context, T) (R, error), opts ...Option) (<-chan R, <-chan error, error) {
	worker := SingleFunc[R](func(ctx context.Context, payload any) (R, error) {
		return fn(ctx, payload.(T))
	})

	p, err := NewOptions[R](worker, opts...)
	if err != nil {
		return nil, nil, err
	}

	results, err := p.RunSeq(ctx, chanSeq(ctx, in), -1)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan R)
	errs := make(chan error)

	go func() {
		defer close(out)
		defer close(errs)
		defer results.Close()

		for {
			v, itemErr, ok := results.Next()
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
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errs, nil
}
