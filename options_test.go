package taskpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewOptions_AppliesOverrides(t *testing.T) {
	worker := SingleFunc[int](func(ctx context.Context, payload any) (int, error) {
		return payload.(int), nil
	})

	p, err := NewOptions[int](worker,
		WithWorkerCount(3),
		WithArgumentMode(ModeSingle),
		WithExceptionPolicy(PolicyDeferred),
		WithUnordered(),
		WithChunkSize(2),
		WithChunkPrefillRatio(4),
		WithJoinTimeout(time.Second),
	)
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, 3, p.cfg.WorkerCount)
	require.Equal(t, PolicyDeferred, p.cfg.ExceptionPolicy)
	require.True(t, p.cfg.Unordered)
	require.Equal(t, 2, p.cfg.ChunkSize)
	require.Equal(t, 4, p.cfg.ChunkPrefillRatio)
}

func TestNewOptions_RejectsInvalidConfig(t *testing.T) {
	worker := SingleFunc[int](func(ctx context.Context, payload any) (int, error) { return 0, nil })
	_, err := NewOptions[int](worker, WithWorkerCount(0))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewOptions_NilOptionPanics(t *testing.T) {
	worker := SingleFunc[int](func(ctx context.Context, payload any) (int, error) { return 0, nil })
	require.Panics(t, func() {
		_, _ = NewOptions[int](worker, nil)
	})
}

func TestNew_DefaultsWhenConfigNil(t *testing.T) {
	worker := SingleFunc[int](func(ctx context.Context, payload any) (int, error) { return 0, nil })
	p, err := New[int](worker, nil)
	require.NoError(t, err)
	defer p.Close()
	require.Equal(t, defaultConfig(), p.cfg)
}
