// Package dispatch drains the event queue in batches and reconciles
// delivery success and failure.
//
// All trigger sources funnel into one flush entrypoint guarded by an
// in-flight lock, so overlapping triggers collapse instead of producing
// duplicate sends. A dedicated worker goroutine owns the flush-interval
// ticker and listens for threshold, manual, and lifecycle wakeups on a
// trigger channel.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/internal/transport"
	"github.com/gametel/gametel-go/internal/wire"
	"github.com/gametel/gametel-go/pkg/logger"
	"github.com/gametel/gametel-go/pkg/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultBatchSize       = 25
	defaultFlushInterval   = 10 * time.Second
	defaultDeliveryTimeout = 15 * time.Second
)

// Event is the payload type drained from the queue.
type Event = event.Event

// Trigger identifies what initiated a flush, for logs and metrics.
type Trigger string

// Trigger sources feeding the flush entrypoint.
const (
	TriggerTimer     Trigger = "timer"
	TriggerThreshold Trigger = "threshold"
	TriggerManual    Trigger = "manual"
	TriggerLifecycle Trigger = "lifecycle"
)

// Queue is the dispatcher's view of the pending event buffer.
type Queue interface {
	// DequeueBatch atomically removes and returns the first min(n, size)
	// events, preserving order.
	DequeueBatch(n int) []Event

	// Requeue prepends a failed batch back to the head so it retries before
	// newer events.
	Requeue(batch []Event)

	// Size returns the current number of pending events.
	Size() int
}

// Dispatcher owns the flush state machine and its scheduling worker.
type Dispatcher struct {
	queue    Queue
	sender   transport.Sender
	encoder  wire.Encoder
	endpoint string
	headers  map[string]string

	batchSize       int
	flushInterval   time.Duration
	deliveryTimeout time.Duration

	// inFlight guards the single-flush invariant: at most one batch chain
	// is being delivered at any instant, process-wide.
	inFlight sync.Mutex

	// Worker lifecycle control
	mu       sync.Mutex
	started  bool
	stopped  bool
	trigger  chan Trigger
	shutdown chan struct{}
	done     chan struct{}

	// Delivered event count, read by the client's stats surface.
	sent int64

	logger logger.Logger
}

// NewDispatcher creates a dispatcher delivering to endpoint with the given
// request headers. Batch size, flush interval, delivery timeout, and the
// payload encoder come from options.
func NewDispatcher(q Queue, sender transport.Sender, endpoint string, headers map[string]string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:           q,
		sender:          sender,
		encoder:         wire.NewJSONEncoder(),
		endpoint:        endpoint,
		headers:         headers,
		batchSize:       defaultBatchSize,
		flushInterval:   defaultFlushInterval,
		deliveryTimeout: defaultDeliveryTimeout,
		trigger:         make(chan Trigger, 1),
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
		logger:          logger.Get().Named("dispatch"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start launches the scheduling worker. Calling Start again, or after Stop,
// is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true

	go d.run(ctx)
}

// Stop halts the scheduling worker and waits for it to exit, bounded by ctx.
// The dispatcher cannot be restarted afterwards; Flush stays usable for a
// final synchronous drain.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.shutdown)

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "scheduler shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// TryTrigger wakes the worker without blocking. A full trigger channel means
// a wakeup is already pending, which is enough.
func (d *Dispatcher) TryTrigger(trig Trigger) {
	select {
	case d.trigger <- trig:
	default:
	}
}

// Sent reports the number of events successfully delivered so far.
func (d *Dispatcher) Sent() int64 {
	return atomic.LoadInt64(&d.sent)
}

// run is the scheduler loop: a ticker at the flush interval plus the
// trigger channel, both funneling into Flush.
func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case <-ticker.C:
			d.Flush(ctx, TriggerTimer)
		case trig := <-d.trigger:
			d.Flush(ctx, trig)
		}
	}
}

// Flush drains the queue now, synchronously. It returns immediately when
// another flush is already in flight; the concurrent trigger collapses into
// that flight instead of producing a duplicate send.
func (d *Dispatcher) Flush(ctx context.Context, trig Trigger) {
	if !d.inFlight.TryLock() {
		return
	}
	defer d.inFlight.Unlock()

	d.drain(ctx, trig)
}

// drain runs the state machine under the in-flight lock. The first batch is
// min(size, batchSize); after each success it re-enters only while a full
// batch remains, bounding the loop to one lock acquisition. The first
// failure requeues the batch at the head and stops; the next trigger
// retries it before anything newer.
func (d *Dispatcher) drain(ctx context.Context, trig Trigger) {
	if d.queue.Size() == 0 {
		return
	}

	metrics.RecordFlushTrigger(string(trig))
	start := time.Now()
	defer func() {
		metrics.RecordFlushDuration(float64(time.Since(start).Milliseconds()))
	}()

	for {
		batch := d.queue.DequeueBatch(d.batchSize)
		if len(batch) == 0 {
			return
		}

		if err := d.deliver(ctx, batch); err != nil {
			d.queue.Requeue(batch)
			metrics.RecordBatchRequeued()
			d.logger.Warn(ctx, "delivery failed, batch requeued for retry",
				logger.String("trigger", string(trig)),
				logger.Int("batch_size", len(batch)),
				logger.Error(err),
			)
			return
		}

		atomic.AddInt64(&d.sent, int64(len(batch)))
		metrics.RecordBatchSent()
		metrics.RecordEventsSent(len(batch))
		d.logger.Debug(ctx, "batch delivered",
			logger.Int("batch_size", len(batch)),
		)

		if d.queue.Size() < d.batchSize {
			return
		}
	}
}

// deliver encodes one batch and hands it to the transport, bounded by the
// delivery timeout. An encode failure is treated like any delivery failure
// so the batch is not lost.
func (d *Dispatcher) deliver(ctx context.Context, batch []Event) error {
	payload, err := d.encoder.Encode(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
	defer cancel()

	return d.sender.Send(sendCtx, d.endpoint, payload, d.headers)
}
