package taskpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWorkerRuntime_ExecuteRecoversPanic(t *testing.T) {
	callable := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		panic("boom")
	})
	w := newWorkerRuntime[int](0, callable, ModeSingle, false, 0, zerolog.Nop())

	result := w.execute(context.Background(), taskEnvelope{index: 3, payload: 1})
	if !result.isFailure() {
		t.Fatalf("expected a captured failure, got value %v", result.value)
	}
	if result.index != 3 {
		t.Fatalf("result.index = %d; want 3", result.index)
	}
}

func TestWorkerRuntime_ExecutePropagatesWorkerError(t *testing.T) {
	wantErr := errors.New("bad input")
	callable := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		return 0, wantErr
	})
	w := newWorkerRuntime[int](0, callable, ModeSingle, false, 0, zerolog.Nop())

	result := w.execute(context.Background(), taskEnvelope{index: 0, payload: 1})
	if !errors.Is(result.err, wantErr) {
		t.Fatalf("result.err = %v; want %v", result.err, wantErr)
	}
}

func TestWorkerRuntime_ResolvesFactoryOnce(t *testing.T) {
	builds := 0
	factory := NewFactory[int](func() (any, error) {
		builds++
		return SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
			return payload.(int) * 2, nil
		}), nil
	})
	w := newWorkerRuntime[int](0, factory, ModeSingle, false, 0, zerolog.Nop())

	r1 := w.execute(context.Background(), taskEnvelope{index: 0, payload: 3})
	r2 := w.execute(context.Background(), taskEnvelope{index: 1, payload: 4})

	if r1.err != nil || r1.value != 6 {
		t.Fatalf("r1 = (%v, %v); want (6, nil)", r1.value, r1.err)
	}
	if r2.err != nil || r2.value != 8 {
		t.Fatalf("r2 = (%v, %v); want (8, nil)", r2.value, r2.err)
	}
	if builds != 1 {
		t.Fatalf("factory build called %d times; want 1", builds)
	}
}

func TestWorkerRuntime_FactoryBuildFailureCapturedThenRetried(t *testing.T) {
	attempts := 0
	buildErr := errors.New("construction failed")
	factory := NewFactory[int](func() (any, error) {
		attempts++
		if attempts == 1 {
			return nil, buildErr
		}
		return SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
			return payload.(int), nil
		}), nil
	})
	w := newWorkerRuntime[int](0, factory, ModeSingle, false, 0, zerolog.Nop())

	first := w.execute(context.Background(), taskEnvelope{index: 0, payload: 1})
	if !errors.Is(first.err, buildErr) {
		t.Fatalf("first.err = %v; want %v", first.err, buildErr)
	}

	second := w.execute(context.Background(), taskEnvelope{index: 1, payload: 5})
	if second.err != nil || second.value != 5 {
		t.Fatalf("second = (%v, %v); want (5, nil)", second.value, second.err)
	}
}

func TestWorkerRuntime_RunExitsOnPoison(t *testing.T) {
	callable := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		return payload.(int), nil
	})
	w := newWorkerRuntime[int](0, callable, ModeSingle, false, 0, zerolog.Nop())

	in := make(chan taskEnvelope, 2)
	out := make(chan resultEnvelope[int], 2)

	in <- taskEnvelope{index: 0, payload: 42}
	in <- taskEnvelope{poison: true}

	done := make(chan struct{})
	go func() {
		w.run(context.Background(), in, out)
		close(done)
	}()

	select {
	case res := <-out:
		if res.value != 42 {
			t.Fatalf("res.value = %d; want 42", res.value)
		}
	case <-done:
		t.Fatalf("worker exited before delivering the queued result")
	}

	<-done
}

func TestWorkerRuntime_ExecuteFastTaskUnaffectedByTimeout(t *testing.T) {
	callable := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		return payload.(int) * 2, nil
	})
	w := newWorkerRuntime[int](0, callable, ModeSingle, false, 50*time.Millisecond, zerolog.Nop())

	result := w.execute(context.Background(), taskEnvelope{index: 0, payload: 4})
	if result.err != nil || result.value != 8 {
		t.Fatalf("result = (%v, %v); want (8, nil)", result.value, result.err)
	}
}

func TestWorkerRuntime_ExecuteTimesOutOnSlowTask(t *testing.T) {
	callable := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return payload.(int), nil
	})
	w := newWorkerRuntime[int](0, callable, ModeSingle, false, 10*time.Millisecond, zerolog.Nop())

	start := time.Now()
	result := w.execute(context.Background(), taskEnvelope{index: 0, payload: 1})
	elapsed := time.Since(start)

	if !errors.Is(result.err, ErrTaskTimeout) {
		t.Fatalf("result.err = %v; want ErrTaskTimeout", result.err)
	}
	if elapsed >= 200*time.Millisecond {
		t.Fatalf("execute took %s; want well under the task's 200ms sleep", elapsed)
	}
}

func TestWorkerRuntime_RunExitsOnContextCancel(t *testing.T) {
	callable := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		return payload.(int), nil
	})
	w := newWorkerRuntime[int](0, callable, ModeSingle, false, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan taskEnvelope)
	out := make(chan resultEnvelope[int])

	done := make(chan struct{})
	go func() {
		w.run(ctx, in, out)
		close(done)
	}()

	cancel()
	<-done
}
