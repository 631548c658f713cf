package taskpool

import "fmt"

// ExceptionPolicy selects how task failures are handled by a Pool
// invocation (spec.md §3).
type ExceptionPolicy string

const (
	// PolicyIgnore surfaces every failure in the result stream as an
	// ordinary outcome; the caller discriminates with IsFailure.
	PolicyIgnore ExceptionPolicy = "ignore"

	// PolicyImmediate aborts the stream on the first observed failure,
	// drains and shuts down the pool, and raises that failure.
	PolicyImmediate ExceptionPolicy = "immediate"

	// PolicyDeferred collects failures silently and raises a single
	// composite error after the input is exhausted and all remaining
	// results are drained.
	PolicyDeferred ExceptionPolicy = "deferred"
)

func (p ExceptionPolicy) valid() bool {
	switch p {
	case PolicyIgnore, PolicyImmediate, PolicyDeferred:
		return true
	default:
		return false
	}
}

// Config holds Pool configuration. Mirrors the teacher's Config/defaults
// split (config.go + defaults.go): a constructor that accepts *Config
// directly (New) for callers who already have one, and a functional-
// options builder (NewOptions, options.go) layered on top of the same
// struct.
type Config struct {
	// WorkerCount is the number of workers to start. When the worker spec
	// is a []any of per-worker callables, its length must equal
	// WorkerCount (ErrWorkerSpecMismatch otherwise).
	// Default: 1.
	WorkerCount int

	// ArgumentMode selects how a task payload is unpacked when invoking
	// a worker callable.
	// Default: ModeSingle.
	ArgumentMode ArgumentMode

	// ExceptionPolicy selects the failure-handling discipline.
	// Default: PolicyImmediate.
	ExceptionPolicy ExceptionPolicy

	// Bounded selects bounded (credit-scheme) vs unbounded dispatch.
	// Default: true.
	Bounded bool

	// ChunkSize is the credit-scheme chunk size S. Zero means "use
	// WorkerCount". Minimum enforced value: 1.
	ChunkSize int

	// ChunkPrefillRatio is the credit-scheme prefill ratio P, used only
	// in unordered mode. Zero means "use 2". Minimum enforced value: 1.
	ChunkPrefillRatio int

	// Unordered selects the unordered (bypass-the-reassembler) output
	// path. Default: false (ordered).
	Unordered bool

	// UseThreads pins each worker's goroutine to its own OS thread for
	// its lifetime, rather than leaving it on the regular scheduler.
	// See SPEC_FULL.md's "processes vs threads" note. Default: false.
	UseThreads bool

	// TaskTimeout is a best-effort, deprecated per-task soft timeout.
	// Zero disables it. See spec.md §5.
	TaskTimeout int64 // nanoseconds; 0 disables

	// JoinTimeout bounds how long Close waits for workers to observe
	// their poison sentinel before logging and abandoning them. Zero
	// means wait indefinitely.
	JoinTimeout int64 // nanoseconds; 0 means no timeout
}

// defaultConfig centralizes default values for Config. Applied by both New
// (when cfg is nil) and NewOptions (options builder base) — same split the
// teacher uses between config.go and defaults.go/options.go.
func defaultConfig() Config {
	return Config{
		WorkerCount:       1,
		ArgumentMode:      ModeSingle,
		ExceptionPolicy:   PolicyImmediate,
		Bounded:           true,
		ChunkSize:         0, // resolved to WorkerCount in engine.go
		ChunkPrefillRatio: 0, // resolved to 2 in engine.go
		Unordered:         false,
		UseThreads:        false,
	}
}

// validateConfig performs the lightweight invariant checks spec.md §7
// classifies as Configuration failures — raised synchronously at pool
// construction, never deferred to an invocation.
func validateConfig(cfg *Config) error {
	if cfg.WorkerCount < 1 {
		return wrapConfigErr("worker count must be >= 1")
	}
	if !cfg.ArgumentMode.valid() {
		return wrapConfigErr("unknown argument mode %q", cfg.ArgumentMode)
	}
	if !cfg.ExceptionPolicy.valid() {
		return wrapConfigErr("unknown exception policy %q", cfg.ExceptionPolicy)
	}
	if cfg.ChunkSize < 0 {
		return wrapConfigErr("chunk size must be >= 0 (0 selects the default)")
	}
	if cfg.ChunkPrefillRatio < 0 {
		return wrapConfigErr("chunk prefill ratio must be >= 0 (0 selects the default)")
	}
	return nil
}

func wrapConfigErr(format string, args ...any) error {
	return &configError{msg: Namespace + ": " + fmt.Sprintf(format, args...)}
}

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }
func (e *configError) Unwrap() error { return ErrInvalidConfig }
