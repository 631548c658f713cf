package taskpool

import (
	"context"
	"iter"
)

// Run submits items for execution and returns a ResultIterator producing
// one outcome per item, in the order determined by the pool's
// configuration (ordered by default; unordered under WithUnordered). A
// Pool serves exactly one Run/RunSeq invocation: calling either again
// after the first has completed returns ErrClosed.
func (p *Pool[R]) Run(ctx context.Context, items []any) (*ResultIterator[R], error) {
	return p.runSource(ctx, sliceSource(items))
}

// RunSeq is Run for a general iter.Seq[any] input, covering sources that
// don't know their own length (spec.md E9). Pass length < 0 when the
// length is unknown; the returned iterator's Len() reports accordingly.
func (p *Pool[R]) RunSeq(ctx context.Context, seq iter.Seq[any], length int) (*ResultIterator[R], error) {
	return p.runSource(ctx, seqSource(seq, length))
}

func (p *Pool[R]) runSource(ctx context.Context, source inputSource) (*ResultIterator[R], error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if !p.invoked.CompareAndSwap(false, true) {
		return nil, ErrClosed
	}

	runCtx, cancel := context.WithCancel(ctx)
	e := newEngine[R](p, source)
	go e.run(runCtx)

	return &ResultIterator[R]{
		ch:        e.yield,
		cancel:    cancel,
		hasLength: source.hasLength,
		length:    source.length,
	}, nil
}
