package storage

import (
	"context"
	"sync"
)

// topic is a minimal change-signal fan-out. Subscribers get a buffered
// signal channel; broadcast never blocks and coalesces pending signals.
type topic struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newTopic() *topic {
	return &topic{subs: make(map[int]chan struct{})}
}

func (t *topic) subscribe() (int, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	ch := make(chan struct{}, 1)
	t.subs[id] = ch
	return id, ch
}

func (t *topic) unsubscribe(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, id)
}

func (t *topic) broadcast() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// watch pushes a fresh snapshot to out whenever the topic signals, starting
// with one immediate snapshot. It returns when ctx is cancelled.
func watch[T any](ctx context.Context, t *topic, query func(context.Context) (T, error), out chan<- T) {
	id, signal := t.subscribe()
	defer t.unsubscribe(id)
	defer close(out)

	for {
		snapshot, err := query(ctx)
		if err == nil {
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-signal:
		case <-ctx.Done():
			return
		}
	}
}
