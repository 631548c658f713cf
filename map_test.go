package taskpool

import (
	"context"
	"errors"
	"testing"
)

func TestMap_ReturnsResultsInOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := Map(context.Background(), items, func(ctx context.Context, x int) (int, error) {
		return x * x, nil
	}, WithWorkerCount(3))
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	want := []int{1, 4, 9, 16, 25}
	if len(results) != len(want) {
		t.Fatalf("Map() = %v; want %v", results, want)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("Map()[%d] = %d; want %d", i, results[i], want[i])
		}
	}
}

func TestMap_EmptyInput(t *testing.T) {
	results, err := Map(context.Background(), []int(nil), func(ctx context.Context, x int) (int, error) {
		return x, nil
	})
	if err != nil || results != nil {
		t.Fatalf("Map(nil) = (%v, %v); want (nil, nil)", results, err)
	}
}

func TestMap_JoinsPerItemErrorsUnderIgnore(t *testing.T) {
	items := []int{1, -1, 2, -2}
	sentinel := errors.New("negative")
	_, err := Map(context.Background(), items, func(ctx context.Context, x int) (int, error) {
		if x < 0 {
			return 0, sentinel
		}
		return x, nil
	}, WithExceptionPolicy(PolicyIgnore))

	if err == nil {
		t.Fatalf("expected a joined error for the two negative inputs")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("joined error does not wrap sentinel: %v", err)
	}
}

func TestForEach_AppliesToEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4}
	seen := make(chan int, len(items))
	err := ForEach(context.Background(), items, func(ctx context.Context, x int) error {
		seen <- x
		return nil
	}, WithWorkerCount(2))
	if err != nil {
		t.Fatalf("ForEach() error = %v", err)
	}
	close(seen)

	total := 0
	for v := range seen {
		total += v
	}
	if total != 10 {
		t.Fatalf("sum of applied items = %d; want 10", total)
	}
}

func TestForEach_EmptyInput(t *testing.T) {
	if err := ForEach(context.Background(), []int(nil), func(ctx context.Context, x int) error {
		t.Fatalf("fn should not be called for empty input")
		return nil
	}); err != nil {
		t.Fatalf("ForEach(nil) error = %v; want nil", err)
	}
}
