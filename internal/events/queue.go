package events

import (
	"errors"
	"sync"
)

var (
	errQueueClosed = errors.New("audit queue is closed")
	errQueueFull   = errors.New("audit queue is full")
)

type message struct {
	Kind  string
	Event AuditEvent
}

// queue holds audit messages waiting for the writer. It never blocks the
// producer side; once full or closed new messages are refused.
type queue struct {
	mu     sync.Mutex
	items  []message
	limit  int
	closed bool
}

func (q *queue) push(m message) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return len(q.items), errQueueClosed
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		return len(q.items), errQueueFull
	}
	q.items = append(q.items, m)
	return len(q.items), nil
}

// takeAll hands over every pending message in arrival order and leaves the
// queue empty.
func (q *queue) takeAll() []message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// close refuses further pushes. Messages already queued can still be taken.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
