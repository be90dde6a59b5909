package collector

import (
	"context"
	"sync"

	"github.com/gametel/gametel-go/internal/event"
)

// Default store configuration constants.
const (
	defaultStoreCapacity = 1000
)

// StoreOption applies a configuration option to the MemStore.
type StoreOption func(*MemStore)

// WithCapacity sets how many events the store retains before evicting the
// oldest.
func WithCapacity(capacity int) StoreOption {
	return func(s *MemStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// Store provides access to the events accepted by the collector.
type Store interface {
	// Add appends accepted events, evicting the oldest beyond capacity.
	Add(ctx context.Context, events ...event.Event)

	// Recent returns up to n retained events, newest first.
	Recent(ctx context.Context, n int) []event.Event

	// Count returns the number of events currently retained.
	Count(ctx context.Context) int

	// TotalEvents returns the number of events accepted since start,
	// including evicted ones.
	TotalEvents(ctx context.Context) int64

	// TotalBatches returns the number of payloads accepted since start.
	TotalBatches(ctx context.Context) int64
}

// MemStore implements Store with a fixed-capacity ring buffer. Eviction is
// oldest-first, so the retained window always holds the latest events.
type MemStore struct {
	mu           sync.RWMutex
	capacity     int
	buf          []event.Event
	head         int // index of the oldest retained event
	size         int
	totalEvents  int64
	totalBatches int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an in-memory event store with configuration options.
func NewMemStore(opts ...StoreOption) *MemStore {
	s := &MemStore{
		capacity: defaultStoreCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.buf = make([]event.Event, s.capacity)
	return s
}

// Add implements Store.
func (s *MemStore) Add(_ context.Context, events ...event.Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if s.size < s.capacity {
			s.buf[(s.head+s.size)%s.capacity] = e
			s.size++
			continue
		}
		s.buf[s.head] = e
		s.head = (s.head + 1) % s.capacity
	}
	s.totalEvents += int64(len(events))
	s.totalBatches++
}

// Recent implements Store.
func (s *MemStore) Recent(_ context.Context, n int) []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return []event.Event{}
	}
	out := make([]event.Event, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.head + s.size - 1 - i) % s.capacity
		out = append(out, s.buf[idx])
	}
	return out
}

// Count implements Store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// TotalEvents implements Store.
func (s *MemStore) TotalEvents(_ context.Context) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalEvents
}

// TotalBatches implements Store.
func (s *MemStore) TotalBatches(_ context.Context) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalBatches
}
