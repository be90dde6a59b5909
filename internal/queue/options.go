// Package queue provides the bounded in-memory buffer of pending events.
package queue

// Option applies a configuration option to the BoundedQueue.
type Option func(*BoundedQueue)

// WithCapacity sets the maximum number of pending events.
func WithCapacity(capacity int) Option {
	return func(q *BoundedQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
