package taskpool

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arrowlane/taskpool/metrics"
)

// Option configures a Pool. Use NewOptions(workerSpec, opts...) to
// construct a Pool via options — mirrors the teacher's options.go
// (Option = func(*configOptions), conflict-checked pool-shape options).
type Option func(*configOptions)

// internal builder state for options assembly.
type configOptions struct {
	cfg     Config
	logger  zerolog.Logger
	metrics metrics.Provider
}

// WithWorkerCount sets the number of workers to start. When the worker
// spec passed to NewOptions is a per-worker slice, its length must equal
// this count (ErrWorkerSpecMismatch otherwise).
func WithWorkerCount(n int) Option {
	return func(co *configOptions) { co.cfg.WorkerCount = n }
}

// WithArgumentMode selects how task payloads are unpacked.
func WithArgumentMode(mode ArgumentMode) Option {
	return func(co *configOptions) { co.cfg.ArgumentMode = mode }
}

// WithExceptionPolicy selects the failure-handling discipline.
func WithExceptionPolicy(policy ExceptionPolicy) Option {
	return func(co *configOptions) { co.cfg.ExceptionPolicy = policy }
}

// WithUnordered selects the unordered output path (bypasses the
// reassembler; results are yielded in completion order).
func WithUnordered() Option {
	return func(co *configOptions) { co.cfg.Unordered = true }
}

// WithOrdered selects the ordered output path (the default) explicitly.
func WithOrdered() Option {
	return func(co *configOptions) { co.cfg.Unordered = false }
}

// WithUnbounded disables the credit scheme: a dedicated goroutine submits
// every input item without the bounded mode's chunked burst limit, while
// collection still happens concurrently result-by-result (not after every
// item has been submitted) so a PolicyImmediate failure still aborts
// promptly instead of waiting for the whole input to drain through.
func WithUnbounded() Option {
	return func(co *configOptions) { co.cfg.Bounded = false }
}

// WithChunkSize sets the credit-scheme chunk size S (default: worker
// count; minimum enforced value: 1).
func WithChunkSize(size int) Option {
	return func(co *configOptions) { co.cfg.ChunkSize = size }
}

// WithChunkPrefillRatio sets the credit-scheme prefill ratio P, used only
// in unordered mode (default: 2; minimum enforced value: 1).
func WithChunkPrefillRatio(ratio int) Option {
	return func(co *configOptions) { co.cfg.ChunkPrefillRatio = ratio }
}

// WithThreads pins each worker to its own OS thread. See SPEC_FULL.md's
// "processes vs threads" note for why this, not a real subprocess, is the
// realization of spec.md's use_threads option in this port.
func WithThreads() Option {
	return func(co *configOptions) { co.cfg.UseThreads = true }
}

// WithTaskTimeout sets a best-effort, deprecated per-task soft timeout.
// See spec.md §5: "implementations SHOULD treat per-task timeouts as a
// deprecated knob."
func WithTaskTimeout(d time.Duration) Option {
	return func(co *configOptions) { co.cfg.TaskTimeout = int64(d) }
}

// WithJoinTimeout bounds how long Close waits for workers to observe
// their poison sentinel before logging a warning and abandoning them.
func WithJoinTimeout(d time.Duration) Option {
	return func(co *configOptions) { co.cfg.JoinTimeout = int64(d) }
}

// WithLogger attaches a zerolog.Logger used for shutdown-timeout and
// task-timeout-deprecation warnings. The default is a disabled logger, so
// the library stays silent unless a caller opts in.
func WithLogger(logger zerolog.Logger) Option {
	return func(co *configOptions) { co.logger = logger }
}

// WithMetrics attaches a metrics.Provider instrumenting submitted/received/
// failed task counts, in-flight gauge, and collection latency. The default
// is metrics.NewNoopProvider(), matching the teacher's own noop default.
func WithMetrics(provider metrics.Provider) Option {
	return func(co *configOptions) { co.metrics = provider }
}

// NewOptions constructs a Pool from a worker spec (a single stateless
// callable replicated across WorkerCount workers, or a []any of N
// per-worker callables/Factories) and functional options. It is the
// preferred constructor — mirrors the teacher's NewOptions/New split and
// deprecation comment style (options.go / workers.go).
func NewOptions[R any](workerSpec any, opts ...Option) (*Pool[R], error) {
	co := configOptions{cfg: defaultConfig(), logger: defaultLogger(), metrics: metrics.NewNoopProvider()}
	for _, opt := range opts {
		if opt == nil {
			panic("nil taskpool option")
		}
		opt(&co)
	}
	if err := validateConfig(&co.cfg); err != nil {
		return nil, fmt.Errorf("invalid taskpool config: %w", err)
	}
	return newPool[R](workerSpec, co.cfg, co.logger, co.metrics)
}

// New constructs a Pool from a worker spec and an explicit *Config.
//
// Deprecated: prefer NewOptions, which composes more safely. Kept for
// callers that already build a Config value, mirroring the teacher's own
// deprecation note on its Config-based constructor.
func New[R any](workerSpec any, cfg *Config) (*Pool[R], error) {
	if cfg == nil {
		c := defaultConfig()
		cfg = &c
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid taskpool config: %w", err)
	}
	return newPool[R](workerSpec, *cfg, defaultLogger(), metrics.NewNoopProvider())
}
