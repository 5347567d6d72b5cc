package bus

import (
	"errors"
	"sync"
)

// DefaultCapacity is the queue capacity used when none is configured.
// Event volume is human-interactive (terminal I/O, state changes), so a
// modest bound is generous in practice.
const DefaultCapacity = 1024

// Overflow policies for a full queue.
const (
	// Block makes Send wait until space is available.
	Block Policy = iota

	// DropOldest evicts the oldest queued item to make room.
	DropOldest

	// Reject makes Send fail with ErrFull.
	Reject
)

// Policy selects the behaviour of Send on a full queue.
type Policy int

// Sentinel errors for queue operations.
var (
	ErrClosed = errors.New("queue is closed")
	ErrFull   = errors.New("queue is full")
)

// Queue is a bounded, multi-producer multi-consumer FIFO queue.
//
// Items sent by a single goroutine are received in send order; no relative
// ordering is guaranteed across distinct senders. Receive blocks while the
// queue is empty and returns ok=false only once the queue is closed and
// drained.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []T
	capacity int
	policy   Policy
	closed   bool
	dropped  uint64
}

// New creates a queue with the given capacity and overflow policy.
// A capacity of zero or less selects DefaultCapacity.
func New[T any](capacity int, policy Policy) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue[T]{
		capacity: capacity,
		policy:   policy,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Send enqueues an item.
//
// On a full queue the configured policy applies: Block waits, DropOldest
// evicts the head, Reject returns ErrFull. Send returns ErrClosed if the
// queue has been closed; callers treat that as "the consumer is gone",
// not as a fatal condition.
func (q *Queue[T]) Send(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity {
		if q.closed {
			return ErrClosed
		}
		switch q.policy {
		case DropOldest:
			q.items = q.items[1:]
			q.dropped++
		case Reject:
			return ErrFull
		case Block:
			q.notFull.Wait()
		}
		if q.policy != Block {
			break
		}
	}

	if q.closed {
		return ErrClosed
	}

	q.items = append(q.items, item)
	q.notEmpty.Signal()
	return nil
}

// Receive dequeues the oldest item, blocking while the queue is empty.
// It returns ok=false once the queue is closed and fully drained.
func (q *Queue[T]) Receive() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			var zero T
			return zero, false
		}
		q.notEmpty.Wait()
	}

	item = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true
}

// TryReceive dequeues the oldest item without blocking.
// ok is false if the queue is empty or closed-and-drained.
func (q *Queue[T]) TryReceive() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true
}

// Close marks the queue closed. Pending items remain receivable; blocked
// receivers wake once the queue drains, blocked senders fail with ErrClosed.
// Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns the number of items evicted under the DropOldest policy.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
