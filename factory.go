package taskpool

// Factory carries a constructor and its arguments, and builds the real
// worker callable exactly once, lazily, on first use inside the owning
// worker's goroutine (spec.md C3 — "the deferred-init shim"). This mirrors
// mtasklite/delayed_init.py's ShellObject: the coordinator never calls
// build — only the worker runtime that owns this Factory does, on the
// first task it receives.
//
// Factory is intentionally not safe for concurrent use: spec.md's lifecycle
// assigns exactly one Factory to exactly one worker, so only that worker's
// single goroutine ever touches it, and no locking is needed.
type Factory[R any] struct {
	build func() (any, error) // returns a SingleFunc[R]/PositionalFunc[R]/KeyedFunc[R]

	built    bool
	instance any
}

// NewFactory wraps a constructor that produces a worker callable. build is
// invoked at most once per task until it succeeds; a failing build is
// retried on the next task (spec.md §4.2: "Materialization failure is
// itself captured as a Failure on the current task; subsequent tasks retry
// materialization").
func NewFactory[R any](build func() (any, error)) *Factory[R] {
	return &Factory[R]{build: build}
}

// resolve returns the built callable, constructing it on first call.
func (f *Factory[R]) resolve() (any, error) {
	if f.built {
		return f.instance, nil
	}
	instance, err := f.build()
	if err != nil {
		return nil, err
	}
	f.instance = instance
	f.built = true
	return f.instance, nil
}
