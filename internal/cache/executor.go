package cache

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor runs fire-and-forget fill tasks.
type Executor interface {
	Execute(task func())
}

// Pool is the production Executor. At most capacity tasks run at once;
// Execute itself never blocks the caller.
type Pool struct {
	sem *semaphore.Weighted
}

func NewPool(capacity int64) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{sem: semaphore.NewWeighted(capacity)}
}

func (p *Pool) Execute(task func()) {
	go func() {
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		task()
	}()
}
