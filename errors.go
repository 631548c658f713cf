package taskpool

import (
	"errors"
	"fmt"
	"sort"

	multierror "github.com/hashicorp/go-multierror"
)

// Namespace prefixes every sentinel error's message, matching the teacher's
// convention of namespacing its error strings.
const Namespace = "taskpool"

var (
	// ErrInvalidConfig is returned (at construction time, per spec.md §7's
	// Configuration failure class) when Pool options are inconsistent: an
	// invalid worker count, chunk size or prefill ratio, an unknown
	// ArgumentMode, an unknown ExceptionPolicy, or a nil worker spec. It is
	// also the item-level error for a malformed payload for the configured
	// mode. A worker-spec/worker-count mismatch is reported as
	// ErrWorkerSpecMismatch instead.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

	// ErrNotCallable is returned when a worker value does not implement
	// the callable shape required by the pool's ArgumentMode.
	ErrNotCallable = errors.New(Namespace + ": worker is not callable for the configured argument mode")

	// ErrWorkerSpecMismatch is returned when a per-worker factory slice's
	// length does not equal the configured worker count.
	ErrWorkerSpecMismatch = errors.New(Namespace + ": worker spec length does not match worker count")

	// ErrClosed is returned by Run when called on an already-closed Pool.
	ErrClosed = errors.New(Namespace + ": pool is closed")

	// ErrTaskTimeout is the item-level error produced when a task does not
	// complete within its configured TaskTimeout. The worker goroutine
	// invoking the callable is not killed — it keeps running in the
	// background and its eventual result is discarded. See
	// WithTaskTimeout and SPEC_FULL.md's per-task timeout note.
	ErrTaskTimeout = errors.New(Namespace + ": task exceeded its timeout")
)

// TaskFailure exposes correlation metadata for a task failure: which
// submission index produced it and which invocation it belongs to. It
// generalizes the teacher's TaskMetaError/taskTaggedError, swapping the
// teacher's (task id, task index) pair for spec.md's submission index plus
// an invocation-scoped correlation id (assigned per Run in engine.go).
type TaskFailure interface {
	error
	Unwrap() error
	Index() int
	InvocationID() string
}

type taskFailure struct {
	err          error
	index        int
	invocationID string
}

func newTaskFailure(err error, index int, invocationID string) error {
	if err == nil {
		return nil
	}
	return &taskFailure{err: err, index: index, invocationID: invocationID}
}

func (e *taskFailure) Error() string       { return e.err.Error() }
func (e *taskFailure) Unwrap() error       { return e.err }
func (e *taskFailure) Index() int          { return e.index }
func (e *taskFailure) InvocationID() string { return e.invocationID }

// ExtractFailureIndex returns the submission index carried by err, if any.
func ExtractFailureIndex(err error) (int, bool) {
	var tf TaskFailure
	if errors.As(err, &tf) {
		return tf.Index(), true
	}
	return 0, false
}

// ExtractInvocationID returns the invocation id carried by err, if any.
func ExtractInvocationID(err error) (string, bool) {
	var tf TaskFailure
	if errors.As(err, &tf) {
		return tf.InvocationID(), true
	}
	return "", false
}

// deferredFailures builds the DEFERRED-policy aggregate error described in
// spec.md §3: "raised as a single composite error carrying all collected
// failures", sorted into submission-index order when the composite is
// built. Backed by hashicorp/go-multierror so
// callers can still unwrap into individual TaskFailure entries via
// multierror.Error's Errors slice.
type deferredFailures struct {
	merr *multierror.Error
}

func (d *deferredFailures) add(err error) {
	d.merr = multierror.Append(d.merr, err)
}

func (d *deferredFailures) empty() bool {
	return d.merr == nil || len(d.merr.Errors) == 0
}

func (d *deferredFailures) asError() error {
	if d.empty() {
		return nil
	}
	sort.SliceStable(d.merr.Errors, func(i, j int) bool {
		a, _ := ExtractFailureIndex(d.merr.Errors[i])
		b, _ := ExtractFailureIndex(d.merr.Errors[j])
		return a < b
	})
	return fmt.Errorf("deferred task failures: %w", d.merr.ErrorOrNil())
}
