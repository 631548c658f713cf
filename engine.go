package taskpool

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// inputSource abstracts over a length-known slice and a possibly-unsized
// iter.Seq, so the engine can submit from either without caring which
// (spec.md E9: "non-sized generator... bounded, ordered" must still work).
type inputSource struct {
	next      func() (any, bool)
	hasLength bool
	length    int
	stop      func()
}

func sliceSource(items []any) inputSource {
	i := 0
	return inputSource{
		hasLength: true,
		length:    len(items),
		next: func() (any, bool) {
			if i >= len(items) {
				return nil, false
			}
			v := items[i]
			i++
			return v, true
		},
	}
}

func seqSource(seq iter.Seq[any], length int) inputSource {
	next, stop := iter.Pull(seq)
	return inputSource{hasLength: length >= 0, length: length, next: next, stop: stop}
}

// outcomeMsg is what the engine goroutine posts to the iterator. fatal is
// set only on the final message that ends the stream with a stream-level
// error (the first IMMEDIATE failure, or the DEFERRED composite); ordinary
// per-item failures under IGNORE arrive as itemErr with more messages to
// follow.
type outcomeMsg[R any] struct {
	value   R
	itemErr error
	fatal   error
}

// engine runs one invocation's submit/collect algorithm (spec.md §4.5) on
// its own goroutine, feeding outcomeMsg values into an unbuffered channel
// so the coordinator genuinely "suspends at every yield": the goroutine
// blocks on that send until the iterator's Next is called, mirroring the
// Python generator's suspend-on-yield semantics from
// mtasklite/pool.py's WorkerPoolResultGenerator._generator.
type engine[R any] struct {
	pool         *Pool[R]
	source       inputSource
	invocationID string
	yield        chan outcomeMsg[R]
}

func newEngine[R any](p *Pool[R], source inputSource) *engine[R] {
	return &engine[R]{
		pool:         p,
		source:       source,
		invocationID: uuid.NewString(),
		yield:        make(chan outcomeMsg[R]),
	}
}

// run always closes the pool at the end (normal exhaustion or IMMEDIATE
// abort) — grounded on mtasklite/pool.py's
// WorkerPoolResultGenerator._generator, which calls
// self.parent_obj.close()/join_workers() unconditionally after its while
// loop, whether it got there by exhausting input or by raising. It
// dispatches to the bounded credit-scheme loop or the unbounded
// submit-without-backpressure loop per spec.md §4 ("Execution mode").
func (e *engine[R]) run(ctx context.Context) {
	defer close(e.yield)
	if e.source.stop != nil {
		defer e.source.stop()
	}
	defer e.pool.closePool()

	raw := e.pool.scratch.Get()
	reasm := raw.(*reassembler[R])
	reasm.reset()
	defer e.pool.scratch.Put(raw)

	var deferred deferredFailures

	if !e.pool.cfg.Bounded {
		e.runUnbounded(ctx, reasm, &deferred)
		return
	}
	e.runBounded(ctx, reasm, &deferred)
}

// runBounded implements spec.md §4.5's credit-scheme loop: submit a burst
// of at most chunkSize tasks (chunkSize * prefillRatio for the first burst
// in unordered mode), collect at most chunkSize results, repeat
// until the input is exhausted and every submitted task has been
// received.
func (e *engine[R]) runBounded(ctx context.Context, reasm *reassembler[R], deferred *deferredFailures) {
	cfg := e.pool.cfg
	workerCount := cfg.WorkerCount

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = workerCount
	}
	prefillRatio := cfg.ChunkPrefillRatio
	if prefillRatio <= 0 {
		prefillRatio = 2
	}

	submitted := 0
	received := 0
	inputDone := false
	submitTimes := make(map[int]time.Time)

	firstBatch := chunkSize
	if cfg.Unordered {
		firstBatch = chunkSize * prefillRatio
	}
	burst := firstBatch

	for {
		if inputDone && submitted == received {
			break
		}

		// Submit phase.
		for !inputDone && burst > 0 {
			item, ok := e.source.next()
			if !ok {
				inputDone = true
				break
			}
			select {
			case e.pool.in <- taskEnvelope{index: submitted, payload: item}:
				submitTimes[submitted] = time.Now()
				submitted++
				burst--
				e.pool.submitted.Add(1)
				e.pool.inFlight.Add(1)
			case <-ctx.Done():
				return
			}
		}
		burst = chunkSize

		// Collect phase.
		take := submitted - received
		if take > chunkSize {
			take = chunkSize
		}
		for i := 0; i < take; i++ {
			var env resultEnvelope[R]
			select {
			case env = <-e.pool.out:
			case <-ctx.Done():
				return
			}
			received++
			e.pool.received.Add(1)
			e.pool.inFlight.Add(-1)
			if t, ok := submitTimes[env.index]; ok {
				e.pool.collectLatency.Record(time.Since(t).Seconds())
				delete(submitTimes, env.index)
			}

			if !e.processResult(ctx, env, reasm, deferred) {
				return
			}
		}
	}

	e.finish(ctx, reasm, deferred)
}

// runUnbounded implements spec.md §4's unbounded execution mode: a
// dedicated goroutine submits every input item without the bounded
// mode's chunked burst limit, decoupling submission from the pace of
// collection ("the engine submits without backpressure"); the collect
// loop below still applies exception policy to each result as soon as it
// arrives, so an IMMEDIATE failure aborts promptly instead of waiting for
// every task to finish (spec.md E10: unbounded + IMMEDIATE must terminate
// in O(task time + join_timeout), not O(n * task time)). stopProducer
// halts the submitter goroutine the moment the collect loop no longer
// needs more input — on an IMMEDIATE abort, on context cancellation, or
// on normal return — so it never leaks blocked on a channel send.
func (e *engine[R]) runUnbounded(ctx context.Context, reasm *reassembler[R], deferred *deferredFailures) {
	var submitted atomic.Int64
	var submitMu sync.Mutex
	submitTimes := make(map[int]time.Time)

	producerDone := make(chan struct{})
	stop := make(chan struct{})
	var stopOnce sync.Once
	stopProducer := func() { stopOnce.Do(func() { close(stop) }) }
	defer stopProducer()

	go func() {
		defer close(producerDone)
		idx := 0
		for {
			item, ok := e.source.next()
			if !ok {
				return
			}
			select {
			case e.pool.in <- taskEnvelope{index: idx, payload: item}:
				submitMu.Lock()
				submitTimes[idx] = time.Now()
				submitMu.Unlock()
				idx++
				submitted.Add(1)
				e.pool.submitted.Add(1)
				e.pool.inFlight.Add(1)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	received := 0
	producerFinished := false
	producerDoneCh := producerDone
	for {
		if producerFinished && int64(received) == submitted.Load() {
			break
		}

		select {
		case env := <-e.pool.out:
			received++
			e.pool.received.Add(1)
			e.pool.inFlight.Add(-1)

			submitMu.Lock()
			t, ok := submitTimes[env.index]
			delete(submitTimes, env.index)
			submitMu.Unlock()
			if ok {
				e.pool.collectLatency.Record(time.Since(t).Seconds())
			}

			if env.isFailure() && e.pool.cfg.ExceptionPolicy == PolicyImmediate {
				// Stop enqueueing new work before draining, so the
				// drain below isn't racing a producer still filling
				// the channel back up.
				stopProducer()
			}
			if !e.processResult(ctx, env, reasm, deferred) {
				return
			}
		case <-producerDoneCh:
			producerFinished = true
			producerDoneCh = nil
		case <-ctx.Done():
			return
		}
	}

	e.finish(ctx, reasm, deferred)
}

// processResult applies exception-policy handling and ordering to one
// collected result, forwarding it (or ending the stream with a fatal
// error) via e.yield. Returns false once the caller should stop running:
// either a fatal outcome was sent, or the context was cancelled.
func (e *engine[R]) processResult(ctx context.Context, env resultEnvelope[R], reasm *reassembler[R], deferred *deferredFailures) bool {
	cfg := e.pool.cfg

	if env.isFailure() {
		e.pool.failed.Add(1)
		tagged := newTaskFailure(env.err, env.index, e.invocationID)
		switch cfg.ExceptionPolicy {
		case PolicyImmediate:
			drainInput(e.pool.in)
			select {
			case e.yield <- outcomeMsg[R]{fatal: tagged}:
			case <-ctx.Done():
			}
			return false
		case PolicyDeferred:
			deferred.add(tagged)
			env.err = tagged
		default: // PolicyIgnore
			env.err = tagged
		}
	}

	if cfg.Unordered {
		return e.sendValue(ctx, env)
	}

	reasm.offer(env)
	for _, out := range reasm.drain() {
		if !e.sendValue(ctx, out) {
			return false
		}
	}
	return true
}

// finish flushes whatever the reassembler still holds and raises the
// DEFERRED composite, if any, once the submit/collect loop has exhausted
// its input.
func (e *engine[R]) finish(ctx context.Context, reasm *reassembler[R], deferred *deferredFailures) {
	if !e.pool.cfg.Unordered {
		for _, out := range reasm.drain() {
			if !e.sendValue(ctx, out) {
				return
			}
		}
	}

	if !deferred.empty() {
		select {
		case e.yield <- outcomeMsg[R]{fatal: deferred.asError()}:
		case <-ctx.Done():
		}
	}
}

func (e *engine[R]) sendValue(ctx context.Context, env resultEnvelope[R]) bool {
	if env.isFailure() && e.pool.cfg.ExceptionPolicy == PolicyDeferred {
		// DEFERRED failures are only reported through the final composite.
		return true
	}
	select {
	case e.yield <- outcomeMsg[R]{value: env.value, itemErr: env.err}:
		return true
	case <-ctx.Done():
		return false
	}
}

// drainInput empties any envelopes still queued for workers so the
// upcoming poison sentinels are reached promptly (spec.md §4.5 "Immediate-
// abort drain"). Non-blocking: it stops as soon as the channel is empty.
func drainInput(in chan taskEnvelope) {
	for {
		select {
		case <-in:
		default:
			return
		}
	}
}
