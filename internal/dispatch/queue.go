package dispatch

import (
	"sync"

	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
)

// Queue is the FIFO of pending requests. It is shared between request intake
// and the simulation loop, so every method locks.
type Queue struct {
	mu    sync.Mutex
	items []model.Request
}

func NewQueue() *Queue { return &Queue{} }

// Append adds req at the tail.
func (q *Queue) Append(req model.Request) error {
	if !req.Valid() {
		return ErrInvalidRequest
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
	metrics.QueueLength.Set(float64(len(q.items)))
	return nil
}

// Peek returns the oldest request without removing it.
func (q *Queue) Peek() (model.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.Request{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the oldest request.
func (q *Queue) Pop() (model.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.Request{}, false
	}
	req := q.items[0]
	q.items[0] = model.Request{}
	q.items = q.items[1:]
	metrics.QueueLength.Set(float64(len(q.items)))
	return req, true
}

// Rotate moves the oldest request to the tail in one step.
func (q *Queue) Rotate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) < 2 {
		return
	}
	head := q.items[0]
	copy(q.items, q.items[1:])
	q.items[len(q.items)-1] = head
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the pending requests, oldest first.
func (q *Queue) Snapshot() []model.Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.Request(nil), q.items...)
}
