package dispatch

import (
	"context"
	"sync"
)

// queue is an unbounded multi-producer single-consumer FIFO.
type queue struct {
	mu     sync.Mutex
	items  []Command
	closed bool

	// wake has capacity 1 so push never blocks
	wake chan struct{}
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

// push appends a command. It returns false once the queue is closed.
func (q *queue) push(cmd Command) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	q.signal()
	return true
}

// pop blocks until a command is available. It returns false when ctx is done
// or the queue is closed and drained.
func (q *queue) pop(ctx context.Context) (Command, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			cmd := q.items[0]
			q.items[0] = Command{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return cmd, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Command{}, false
		}

		select {
		case <-ctx.Done():
			return Command{}, false
		case <-q.wake:
		}
	}
}

// close rejects further pushes. Queued commands can still be popped.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.signal()
}

// discard drops all queued commands and closes the queue. Dropped queries
// have their reply channels abandoned.
func (q *queue) discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	q.closed = true
	return n
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
