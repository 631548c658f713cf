package taskpool

import (
	"context"
	"fmt"
)

// ArgumentMode selects how a task's payload is unpacked when invoking a
// worker callable. It is a defined string type (rather than an int-backed
// enum) so that configuration sources that only produce strings can assign
// it directly without a conversion helper — e.g. ArgumentMode("positional").
type ArgumentMode string

const (
	// ModeSingle invokes the worker with the payload as a single opaque
	// argument: worker(ctx, payload).
	ModeSingle ArgumentMode = "single"

	// ModePositional invokes the worker with the payload as an ordered
	// sequence of positional arguments: worker(ctx, payload.([]any)).
	ModePositional ArgumentMode = "positional"

	// ModeKeyed invokes the worker with the payload unpacked as a mapping
	// of named arguments: worker(ctx, payload-as-map).
	ModeKeyed ArgumentMode = "keyed"
)

func (m ArgumentMode) valid() bool {
	switch m {
	case ModeSingle, ModePositional, ModeKeyed:
		return true
	default:
		return false
	}
}

// SingleFunc is a worker callable under ModeSingle: the payload is passed
// through unmodified.
type SingleFunc[R any] func(ctx context.Context, payload any) (R, error)

// PositionalFunc is a worker callable under ModePositional: the payload
// must be a []any, unpacked into positional arguments by the caller's
// convention (the callable itself receives the slice and destructures it).
type PositionalFunc[R any] func(ctx context.Context, args []any) (R, error)

// KeyedFunc is a worker callable under ModeKeyed: the payload must be a
// map[string]any of named arguments.
type KeyedFunc[R any] func(ctx context.Context, args map[string]any) (R, error)

// invokeWorker performs the tagged dispatch described in spec.md §4.2 and
// §9 ("duck-typed worker interface... realize as a small tagged dispatch
// inside the worker runtime keyed on argument_type; do not require workers
// to implement a trait with all three"). callable must already be the
// built instance (post delayed-init, if applicable) — see factory.go.
func invokeWorker[R any](ctx context.Context, callable any, mode ArgumentMode, payload any) (R, error) {
	var zero R

	switch mode {
	case ModeSingle:
		fn, ok := callable.(SingleFunc[R])
		if !ok {
			return zero, fmt.Errorf("%w: expected SingleFunc for ModeSingle, got %T", ErrNotCallable, callable)
		}
		return fn(ctx, payload)

	case ModePositional:
		fn, ok := callable.(PositionalFunc[R])
		if !ok {
			return zero, fmt.Errorf("%w: expected PositionalFunc for ModePositional, got %T", ErrNotCallable, callable)
		}
		args, ok := payload.([]any)
		if !ok {
			return zero, fmt.Errorf("%w: ModePositional requires a []any payload, got %T", ErrInvalidConfig, payload)
		}
		return fn(ctx, args)

	case ModeKeyed:
		fn, ok := callable.(KeyedFunc[R])
		if !ok {
			return zero, fmt.Errorf("%w: expected KeyedFunc for ModeKeyed, got %T", ErrNotCallable, callable)
		}
		args, ok := payload.(map[string]any)
		if !ok {
			return zero, fmt.Errorf("%w: ModeKeyed requires a map[string]any payload, got %T", ErrInvalidConfig, payload)
		}
		return fn(ctx, args)

	default:
		return zero, fmt.Errorf("%w: unknown argument mode %q", ErrInvalidConfig, mode)
	}
}
