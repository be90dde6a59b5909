// Package queue provides the bounded in-memory buffer of pending events.
//
// The buffer is a slice-backed FIFO guarded by a single mutex so that batch
// removal and head requeue stay atomic with respect to concurrent enqueues.
package queue

import (
	"sync"

	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1000
)

// Event represents the payload type flowing through the queue.
// Using the event.Event type for type safety.
type Event = event.Event

// Queue is the bounded FIFO shared by the recording API and the flush engine.
type Queue interface {
	// Enqueue appends an event at the tail.
	// Returns false if the queue is full and the event was not enqueued.
	Enqueue(e Event) bool

	// DequeueBatch atomically removes and returns the first min(n, Size())
	// events, preserving order.
	DequeueBatch(n int) []Event

	// Requeue atomically prepends a previously dequeued batch back to the
	// head, preserving its relative order, so it retries before newer events.
	Requeue(batch []Event)

	// Size returns the current number of pending events.
	Size() int

	// Capacity returns the configured maximum size.
	Capacity() int
}

// BoundedQueue implements Queue with a mutex-guarded slice.
type BoundedQueue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
}

// NewBoundedQueue creates a new bounded queue with configuration options.
func NewBoundedQueue(opts ...Option) *BoundedQueue {
	q := &BoundedQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.events = make([]Event, 0, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue appends an event at the tail. The queue never overwrites pending
// events: at capacity the event is rejected and the caller observes the drop.
func (q *BoundedQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		return false
	}

	q.events = append(q.events, e)
	metrics.RecordEventEnqueued()
	q.observe()
	return true
}

// DequeueBatch atomically removes and returns the first min(n, Size()) events.
// Returns nil when the queue is empty or n is not positive.
func (q *BoundedQueue) DequeueBatch(n int) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || len(q.events) == 0 {
		return nil
	}
	if n > len(q.events) {
		n = len(q.events)
	}

	batch := make([]Event, n)
	copy(batch, q.events[:n])

	remaining := copy(q.events, q.events[n:])
	q.events = q.events[:remaining]

	q.observe()
	return batch
}

// Requeue prepends a previously dequeued batch back to the head. A requeue is
// never dropped, so immediately after one the size may transiently exceed
// capacity until the backlog drains; Enqueue keeps rejecting while it does.
func (q *BoundedQueue) Requeue(batch []Event) {
	if len(batch) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	merged := make([]Event, 0, len(batch)+len(q.events))
	merged = append(merged, batch...)
	merged = append(merged, q.events...)
	q.events = merged

	q.observe()
}

// Size returns the current number of pending events.
func (q *BoundedQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Capacity returns the configured maximum size.
func (q *BoundedQueue) Capacity() int {
	return q.capacity
}

// observe refreshes the queue gauges. Callers must hold q.mu.
func (q *BoundedQueue) observe() {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
