package taskpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// workerRuntime is the C2 component: one instance per worker, started
// once at Pool construction and living until it consumes a poison
// sentinel (or its context is cancelled; a worker still running when
// Close's join timeout elapses is abandoned, not stopped). It generalizes the teacher's
// worker.go (execute/panic-recovery) to spec.md's tagged argument dispatch
// and to a long-lived goroutine that loops over the shared input channel
// instead of being checked out from a sync.Pool per task.
type workerRuntime[R any] struct {
	id          int
	callable    any // SingleFunc[R] / PositionalFunc[R] / KeyedFunc[R], or *Factory[R]
	mode        ArgumentMode
	useThread   bool
	taskTimeout time.Duration
	logger      zerolog.Logger

	timeoutWarnOnce sync.Once
}

func newWorkerRuntime[R any](id int, callable any, mode ArgumentMode, useThread bool, taskTimeout time.Duration, logger zerolog.Logger) *workerRuntime[R] {
	return &workerRuntime[R]{id: id, callable: callable, mode: mode, useThread: useThread, taskTimeout: taskTimeout, logger: logger}
}

// run is the worker's main loop: receive envelope, break on poison,
// execute, post the result. It never closes either channel — shutdown is
// orchestrated by the engine (spec.md §4.2: "release channel endpoints so
// shutdown is not blocked by buffered deliveries" — here, simply returning
// and letting the Pool's WaitGroup observe it).
func (w *workerRuntime[R]) run(ctx context.Context, in <-chan taskEnvelope, out chan<- resultEnvelope[R]) {
	if w.useThread {
		// Pin this goroutine to its own OS thread for its whole
		// lifetime — the closest Go equivalent of spec.md's "separate
		// OS-level execution context" per worker when use_threads is
		// requested. See SPEC_FULL.md's "processes vs threads" note.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-in:
			if !ok || env.poison {
				return
			}
			out <- w.execute(ctx, env)
		}
	}
}

// execute invokes the worker callable for one envelope, capturing any
// failure (including a panic) as a value rather than propagating it —
// spec.md §4.2: "the worker runtime never propagates failures to the
// output channel as an out-of-band signal. A worker never terminates due
// to a task failure." When a positive TaskTimeout is configured, the
// call is raced against it instead of run inline.
func (w *workerRuntime[R]) execute(ctx context.Context, env taskEnvelope) (result resultEnvelope[R]) {
	result.index = env.index

	defer func() {
		if rec := recover(); rec != nil {
			result.value = *new(R)
			result.err = fmt.Errorf("%s: task execution panicked: %v", Namespace, rec)
		}
	}()

	callable, err := w.resolveCallable()
	if err != nil {
		result.err = err
		return result
	}

	if w.taskTimeout > 0 {
		value, err := w.invokeWithTimeout(ctx, callable, env)
		result.value = value
		result.err = err
		return result
	}

	value, err := invokeWorker[R](ctx, callable, w.mode, env.payload)
	result.value = value
	result.err = err
	return result
}

// invokeWithTimeout is the deprecated per-task soft timeout: a
// best-effort race between the call and a timer, grounded on
// mtasklite/pool.py's own documented caveat that worker_timeout_sec
// cannot actually kill a running task — it only stops waiting for it.
// The done channel is buffered so a call that finishes after the timeout
// still completes its send and the child goroutine is never leaked
// blocked forever; the goroutine itself, however, keeps running to
// completion even though its result is discarded.
func (w *workerRuntime[R]) invokeWithTimeout(ctx context.Context, callable any, env taskEnvelope) (R, error) {
	type outcome struct {
		value R
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("%s: task execution panicked: %v", Namespace, rec)}
			}
		}()
		value, err := invokeWorker[R](ctx, callable, w.mode, env.payload)
		done <- outcome{value: value, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-time.After(w.taskTimeout):
		w.timeoutWarnOnce.Do(func() {
			w.logger.Warn().
				Int("worker", w.id).
				Dur("task_timeout", w.taskTimeout).
				Msg("taskpool: per-task timeout fired; this option is deprecated and does not stop the underlying call")
		})
		return *new(R), fmt.Errorf("%w: index %d exceeded %s", ErrTaskTimeout, env.index, w.taskTimeout)
	}
}

// resolveCallable materializes a Factory on first use (spec.md C3) or
// passes a stateless callable through unchanged.
func (w *workerRuntime[R]) resolveCallable() (any, error) {
	if factory, ok := w.callable.(*Factory[R]); ok {
		return factory.resolve()
	}
	return w.callable, nil
}
