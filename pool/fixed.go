package pool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// fixed bounds concurrently-checked-out values at capacity using a real
// semaphore instead of juggling three channels to approximate one. Values
// beyond capacity block in Get until a Put releases a slot.
type fixed struct {
	sem   *semaphore.Weighted
	free  chan interface{}
	newFn func() interface{}
}

// NewFixed returns a Pool that lazily creates up to capacity values via
// newFn and reuses them across Get/Put pairs, blocking Get once capacity
// concurrent checkouts are outstanding.
func NewFixed(capacity uint, newFn func() interface{}) Pool {
	return &fixed{
		sem:   semaphore.NewWeighted(int64(capacity)),
		free:  make(chan interface{}, capacity),
		newFn: newFn,
	}
}

func (p *fixed) Get() interface{} {
	_ = p.sem.Acquire(context.Background(), 1)

	select {
	case el := <-p.free:
		return el
	default:
		return p.newFn()
	}
}

func (p *fixed) Put(el interface{}) {
	select {
	case p.free <- el:
	default:
	}
	p.sem.Release(1)
}
