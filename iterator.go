package taskpool

import (
	"context"
	"iter"
	"sync"
)

// ResultIterator is the user-visible handle on one invocation (spec.md
// §6 "Iterator surface" and §4.5 "Invocation-as-context-manager"): a
// lazy, length-aware, pull-driven sequence of outcomes. Entering it is a
// no-op; Close (or exhausting it) tears the pool down, exactly mirroring
// mtasklite's WorkerPoolResultGenerator.__enter__/__exit__ pair.
type ResultIterator[R any] struct {
	ch        chan outcomeMsg[R]
	cancel    context.CancelFunc
	closeOnce sync.Once

	hasLength bool
	length    int
}

// Len reports the invocation's advertised length, if the input iterable
// had one (spec.md §4.5 "Length propagation", §8 property 3).
func (it *ResultIterator[R]) Len() (int, bool) {
	return it.length, it.hasLength
}

// Next pulls the next outcome. ok is false once the stream has ended,
// either because every result was yielded or because a fatal error ended
// it early (IMMEDIATE's first failure, or the DEFERRED composite raised
// after all successes were yielded); in that case err carries the fatal
// error. While ok is true, err carries a per-item failure under
// ExceptionPolicy IGNORE (DEFERRED failures are not yielded as items; they
// arrive only inside the final composite) — callers discriminate per-item
// failures from the end-of-stream fatal error by checking ok.
func (it *ResultIterator[R]) Next() (value R, err error, ok bool) {
	msg, open := <-it.ch
	if !open {
		var zero R
		return zero, nil, false
	}
	if msg.fatal != nil {
		var zero R
		return zero, msg.fatal, false
	}
	return msg.value, msg.itemErr, true
}

// All adapts the iterator to Go 1.23's range-over-func form:
//
//	for value, err := range it.All() { ... }
//
// Breaking out of the range early calls Close, same as an explicit defer.
func (it *ResultIterator[R]) All() iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		defer it.Close()
		for {
			value, err, ok := it.Next()
			if !ok {
				if err != nil {
					yield(value, err)
				}
				return
			}
			if !yield(value, err) {
				return
			}
		}
	}
}

// Close triggers pool teardown: if the invocation already ran to
// completion this is a no-op (the engine already closed the pool), if
// abandoned mid-stream this cancels the engine goroutine and closes the
// pool. Safe to call multiple times and safe to call after exhaustion.
func (it *ResultIterator[R]) Close() {
	it.closeOnce.Do(func() {
		it.cancel()
		for range it.ch {
			// drain so the engine goroutine observing ctx.Done can return
		}
	})
}

// IsFailure reports whether err represents a per-item task failure rather
// than a nil error — a thin, documented predicate matching spec.md §6's
// "the caller discriminates with an is_failure(x) predicate".
func IsFailure(err error) bool { return err != nil }
