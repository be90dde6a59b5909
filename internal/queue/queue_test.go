package queue

import (
	"fmt"
	"testing"
	"time"
)

func TestBoundedQueue_BasicOperations(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(2))

	// Test empty queue
	if l := q.Size(); l != 0 {
		t.Errorf("expected size 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
	if batch := q.DequeueBatch(5); batch != nil {
		t.Errorf("expected nil batch from empty queue, got %v", batch)
	}

	// Test enqueue
	event1 := Event{Name: "event1", Category: "test"}
	if !q.Enqueue(event1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Size(); l != 1 {
		t.Errorf("expected size 1, got %d", l)
	}

	// Test dequeue
	batch := q.DequeueBatch(1)
	if len(batch) != 1 {
		t.Fatalf("expected batch of 1, got %d", len(batch))
	}
	if batch[0].Name != "event1" {
		t.Errorf("expected event1, got %v", batch[0].Name)
	}

	if l := q.Size(); l != 0 {
		t.Errorf("expected size 0, got %d", l)
	}
}

func TestBoundedQueue_Capacity(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(2))

	event1 := Event{Name: "event1", Category: "test"}
	event2 := Event{Name: "event2", Category: "test"}
	event3 := Event{Name: "event3", Category: "test"}

	if !q.Enqueue(event1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(event2) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(event3) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Size(); l != 2 {
		t.Errorf("expected size 2, got %d", l)
	}
}

func TestBoundedQueue_OrderPreservation(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(10))

	for i := 1; i <= 5; i++ {
		if !q.Enqueue(Event{Name: fmt.Sprintf("event%d", i)}) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}

	first := q.DequeueBatch(3)
	if len(first) != 3 {
		t.Fatalf("expected batch of 3, got %d", len(first))
	}
	for i, e := range first {
		want := fmt.Sprintf("event%d", i+1)
		if e.Name != want {
			t.Errorf("expected %s at position %d, got %s", want, i, e.Name)
		}
	}

	second := q.DequeueBatch(3)
	if len(second) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(second))
	}
	if second[0].Name != "event4" || second[1].Name != "event5" {
		t.Errorf("expected event4, event5, got %s, %s", second[0].Name, second[1].Name)
	}
}

func TestBoundedQueue_Requeue(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(10))

	for i := 1; i <= 5; i++ {
		q.Enqueue(Event{Name: fmt.Sprintf("event%d", i)})
	}

	// Simulate a failed delivery: dequeue a batch, then put it back.
	batch := q.DequeueBatch(3)
	if l := q.Size(); l != 2 {
		t.Fatalf("expected size 2 after dequeue, got %d", l)
	}
	q.Requeue(batch)

	if l := q.Size(); l != 5 {
		t.Fatalf("expected size 5 after requeue, got %d", l)
	}

	// The requeued batch must come out before newer events, in original order.
	drained := q.DequeueBatch(5)
	for i, e := range drained {
		want := fmt.Sprintf("event%d", i+1)
		if e.Name != want {
			t.Errorf("expected %s at position %d, got %s", want, i, e.Name)
		}
	}
}

func TestBoundedQueue_RequeueBeforeNewerEvents(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(10))

	q.Enqueue(Event{Name: "old1"})
	q.Enqueue(Event{Name: "old2"})

	batch := q.DequeueBatch(2)

	// Newer events arrive while the batch is in flight.
	q.Enqueue(Event{Name: "new1"})
	q.Enqueue(Event{Name: "new2"})

	q.Requeue(batch)

	drained := q.DequeueBatch(4)
	want := []string{"old1", "old2", "new1", "new2"}
	for i, e := range drained {
		if e.Name != want[i] {
			t.Errorf("expected %s at position %d, got %s", want[i], i, e.Name)
		}
	}
}

func TestBoundedQueue_RequeueOverCapacity(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(4))

	for i := 1; i <= 4; i++ {
		q.Enqueue(Event{Name: fmt.Sprintf("event%d", i)})
	}

	batch := q.DequeueBatch(2)

	// Enqueues fill the freed space while the batch is in flight.
	q.Enqueue(Event{Name: "event5"})
	q.Enqueue(Event{Name: "event6"})

	// A requeue is never dropped, even past capacity.
	q.Requeue(batch)
	if l := q.Size(); l != 6 {
		t.Fatalf("expected size 6 after requeue, got %d", l)
	}

	// Enqueue keeps rejecting until the backlog drains below capacity.
	if q.Enqueue(Event{Name: "event7"}) {
		t.Error("expected enqueue to fail above capacity")
	}

	drained := q.DequeueBatch(6)
	want := []string{"event1", "event2", "event3", "event4", "event5", "event6"}
	for i, e := range drained {
		if e.Name != want[i] {
			t.Errorf("expected %s at position %d, got %s", want[i], i, e.Name)
		}
	}
}

func TestBoundedQueue_ConcurrentAccess(t *testing.T) {
	q := NewBoundedQueue(WithCapacity(1000))
	numGoroutines := 10
	numEvents := 100

	// Start producer goroutines
	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numEvents; j++ {
				e := Event{
					Name:     fmt.Sprintf("event%d_%d", id, j),
					Category: "test",
				}
				for !q.Enqueue(e) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	// Drain concurrently with the producers.
	total := numGoroutines * numEvents
	consumed := 0
	deadline := time.After(5 * time.Second)
	for consumed < total {
		batch := q.DequeueBatch(25)
		consumed += len(batch)
		if len(batch) == 0 {
			select {
			case <-deadline:
				t.Fatalf("timed out: consumed %d of %d", consumed, total)
			case <-time.After(time.Millisecond):
			}
		}
	}

	// Wait for producers to finish
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	if l := q.Size(); l != 0 {
		t.Errorf("expected final size 0, got %d", l)
	}
}
