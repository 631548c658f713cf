package taskpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/arrowlane/taskpool/metrics"
	poolpkg "github.com/arrowlane/taskpool/pool"
)

// Pool is the C5 coordinator's worker-owning half: it starts WorkerCount
// workers immediately at construction and keeps them running until Close
// (direct, or triggered by the first completed Run — see engine.go's
// close-at-invocation-end, grounded on mtasklite/pool.py's
// WorkerPoolResultGenerator._generator, which always closes its parent
// pool at generator exhaustion). A Pool is good for exactly one Run/RunSeq
// invocation; a second call after the first completes returns ErrClosed,
// matching the original's own one-shot-per-process-group behavior.
type Pool[R any] struct {
	cfg     Config
	logger  zerolog.Logger
	metrics metrics.Provider

	workers []*workerRuntime[R]
	in      chan taskEnvelope
	out     chan resultEnvelope[R]

	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool
	invoked   atomic.Bool

	scratch poolpkg.Pool

	submitted      metrics.Counter
	received       metrics.Counter
	failed         metrics.Counter
	inFlight       metrics.UpDownCounter
	collectLatency metrics.Histogram
}

// newPool validates the worker spec against cfg and starts one goroutine
// per worker. workerSpec is either a single callable replicated WorkerCount
// times, or a []any of exactly WorkerCount per-worker callables/Factories.
func newPool[R any](workerSpec any, cfg Config, logger zerolog.Logger, provider metrics.Provider) (*Pool[R], error) {
	callables, err := resolveWorkerSpec[R](workerSpec, cfg.WorkerCount)
	if err != nil {
		return nil, err
	}

	p := &Pool[R]{
		cfg:     cfg,
		logger:  logger,
		metrics: provider,
		in:      make(chan taskEnvelope, cfg.WorkerCount),
		out:     make(chan resultEnvelope[R], cfg.WorkerCount),
		scratch: poolpkg.NewFixed(uint(cfg.WorkerCount), func() interface{} { return newReassembler[R]() }),

		submitted:      provider.Counter("taskpool_submitted_total", metrics.WithDescription("tasks submitted to workers")),
		received:       provider.Counter("taskpool_received_total", metrics.WithDescription("results received from workers")),
		failed:         provider.Counter("taskpool_failed_total", metrics.WithDescription("task failures observed")),
		inFlight:       provider.UpDownCounter("taskpool_in_flight", metrics.WithDescription("tasks submitted but not yet received")),
		collectLatency: provider.Histogram("taskpool_collect_latency_seconds", metrics.WithDescription("time from task submission to result collection"), metrics.WithUnit("seconds")),
	}

	p.workers = make([]*workerRuntime[R], cfg.WorkerCount)
	taskTimeout := time.Duration(cfg.TaskTimeout)
	for i := 0; i < cfg.WorkerCount; i++ {
		p.workers[i] = newWorkerRuntime[R](i, callables[i], cfg.ArgumentMode, cfg.UseThreads, taskTimeout, logger)
	}

	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		w := w
		go func() {
			defer p.wg.Done()
			w.run(context.Background(), p.in, p.out)
		}()
	}

	return p, nil
}

// resolveWorkerSpec expands workerSpec into exactly workerCount callables,
// validating a per-worker factory slice's length against workerCount
// (spec.md §3: "if a sequence is given, its length equals the worker
// count" — a Configuration failure otherwise).
func resolveWorkerSpec[R any](workerSpec any, workerCount int) ([]any, error) {
	if workerSpec == nil {
		return nil, fmt.Errorf("%w: worker spec must not be nil", ErrInvalidConfig)
	}

	if slice, ok := workerSpec.([]any); ok {
		if len(slice) != workerCount {
			return nil, fmt.Errorf("%w: worker spec has %d entries, want %d", ErrWorkerSpecMismatch, len(slice), workerCount)
		}
		return slice, nil
	}

	callables := make([]any, workerCount)
	for i := range callables {
		callables[i] = workerSpec
	}
	return callables, nil
}

// Close sends one poison envelope per worker and waits for them to exit,
// up to JoinTimeout. Idempotent: only the first call has any effect
// (spec.md §5, §8 property 6). Safe to call even if an invocation already
// triggered it via normal completion or an IMMEDIATE failure.
func (p *Pool[R]) Close() {
	p.closePool()
}

func (p *Pool[R]) closePool() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)

		go func() {
			for range p.workers {
				p.in <- taskEnvelope{poison: true}
			}
		}()

		joined := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(joined)
		}()

		var timeoutCh <-chan time.Time
		if p.cfg.JoinTimeout > 0 {
			timeoutCh = time.After(time.Duration(p.cfg.JoinTimeout))
		}

		for {
			select {
			case <-joined:
				return
			case <-p.out:
				// discard stray results produced by workers racing shutdown
			case <-timeoutCh:
				p.logger.Warn().
					Int("workers", len(p.workers)).
					Dur("join_timeout", time.Duration(p.cfg.JoinTimeout)).
					Msg("taskpool: join timeout elapsed, abandoning workers still running")
				return
			}
		}
	})
}
