// Implements the BoundedQueue used for both the pending queue and each server's queue.
// Offers never block: a full queue rejects. Takes suspend until work arrives or ctx ends.

package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const (
	// DefaultPendingCapacity bounds the queue between the generator and the dispatcher.
	DefaultPendingCapacity = 20
	// DefaultServerCapacity bounds each server's own queue.
	DefaultServerCapacity = 10
)

// BoundedQueue is a strict FIFO of requests with a fixed capacity.
//
// Thread-safety: safe for concurrent use. Offer never blocks; Take suspends on
// a one-slot signal channel rather than polling.
type BoundedQueue struct {
	mu       sync.Mutex
	items    []*Request
	capacity int
	ready    chan struct{} // holds a token whenever items may be non-empty
}

// NewBoundedQueue creates an empty queue. Panics if capacity <= 0.
func NewBoundedQueue(capacity int) *BoundedQueue {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewBoundedQueue: capacity must be > 0, got %d", capacity))
	}
	return &BoundedQueue{
		items:    make([]*Request, 0, capacity),
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

// Offer appends r to the back of the queue.
// Returns false without blocking when the queue is at capacity.
func (q *BoundedQueue) Offer(r *Request) bool {
	if r == nil {
		panic("BoundedQueue.Offer: request must not be nil")
	}
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, r)
	if len(q.items) > q.capacity {
		panic(fmt.Sprintf("BoundedQueue: length %d exceeds capacity %d", len(q.items), q.capacity))
	}
	q.mu.Unlock()
	q.signal()
	return true
}

// Take removes and returns the head of the queue, suspending while it is empty.
// Returns false once ctx is done and nothing was taken.
func (q *BoundedQueue) Take(ctx context.Context) (*Request, bool) {
	for {
		if r, ok := q.TryTake(); ok {
			return r, true
		}
		select {
		case <-q.Ready():
		case <-ctx.Done():
			return nil, false
		}
	}
}

// TryTake removes and returns the head of the queue without waiting.
func (q *BoundedQueue) TryTake() (*Request, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	remaining := len(q.items)
	q.mu.Unlock()
	if remaining > 0 {
		// Pass the wakeup on so a second consumer is not stranded.
		q.signal()
	}
	return r, true
}

// Ready returns a channel that receives a token when the queue may have become
// non-empty. Consumers that need their own locking around TryTake wait on it.
func (q *BoundedQueue) Ready() <-chan struct{} {
	return q.ready
}

func (q *BoundedQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Len returns the number of queued requests.
func (q *BoundedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity.
func (q *BoundedQueue) Cap() int {
	return q.capacity
}

// Items returns a copy of the queue contents, head first.
func (q *BoundedQueue) Items() []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Request, len(q.items))
	copy(out, q.items)
	return out
}

// Drain empties the queue and returns what it held, head first.
func (q *BoundedQueue) Drain() []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = make([]*Request, 0, q.capacity)
	return out
}

func (q *BoundedQueue) String() string {
	items := q.Items()
	var sb strings.Builder
	sb.WriteString("[")
	for i, r := range items {
		sb.WriteString(fmt.Sprint(r.ID))
		if i < len(items)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
