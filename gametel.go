// Package gametel records gameplay telemetry inside a running game client
// and ships it to a collector in batches.
//
// Events are recorded with Track or the Track* helpers, stamped with the
// current session identity, and buffered in a bounded in-memory queue. A
// background worker drains the queue on a timer, when enough events
// accumulate, or on demand, delivering JSON batches over HTTP. Delivery is
// best-effort: failed batches are retried on later cycles, and new events
// are dropped once the queue is full.
package gametel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gametel/gametel-go/internal/dispatch"
	"github.com/gametel/gametel-go/internal/event"
	eventqueue "github.com/gametel/gametel-go/internal/queue"
	"github.com/gametel/gametel-go/internal/session"
	"github.com/gametel/gametel-go/internal/transport"
	"github.com/gametel/gametel-go/pkg/logger"
	"github.com/gametel/gametel-go/pkg/metrics"
)

// eventsPath is appended to the configured server URL for deliveries.
const eventsPath = "/v1/events"

// Client is the telemetry pipeline: recording API, session context, bounded
// queue, and background delivery. Build it with New, start it with Start.
type Client struct {
	mu  sync.RWMutex
	cfg Config

	// Core components
	queue      eventqueue.Queue
	session    *session.Context
	dispatcher *dispatch.Dispatcher

	// Injected collaborators
	sender  transport.Sender
	encoder Encoder
	clock   Clock

	// Identity applied to the session at Start; SetPlayerID keeps it
	// current so the value survives a Close/Start cycle.
	playerID string

	// State
	started bool

	// Counters
	dropped  int64
	sentBase int64

	logger       logger.Logger
	customLogger bool
}

// New builds a Client from cfg. The configuration is normalized first
// (ranged fields clamped, server URL trimmed) and then validated: a missing
// API key or server URL fails construction. Nothing is recorded or
// delivered until Start.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		clock:  time.Now,
		logger: logger.Get().Named("gametel"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes the pipeline: logging (if enabled), the bounded queue,
// a fresh session context, the transport, and the background flush worker.
// Starting a started client is a no-op. A closed client may be started
// again; it gets a new session and an empty queue.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	// Guards hand-rolled Client values; New already validated.
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	if c.cfg.EnableLogging {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		if err := logger.SetLevelString(c.cfg.LogLevel); err != nil {
			logger.Get().Warn(ctx, "unknown log level, keeping info",
				logger.String("level", c.cfg.LogLevel),
			)
		}
	}
	if !c.customLogger {
		c.logger = logger.Get().Named("gametel")
	}

	c.queue = eventqueue.NewBoundedQueue(
		eventqueue.WithCapacity(c.cfg.MaxQueueSize),
	)
	c.session = session.New(c.cfg.Platform, c.cfg.AppVersion,
		session.WithClock(c.clock),
	)
	if c.playerID != "" {
		c.session.SetPlayerID(c.playerID)
	}
	if c.sender == nil {
		c.sender = transport.NewHTTPSender()
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"X-API-Key":    c.cfg.APIKey,
	}
	dopts := []dispatch.Option{
		dispatch.WithBatchSize(c.cfg.BatchSize),
		dispatch.WithFlushInterval(time.Duration(c.cfg.FlushIntervalSec) * time.Second),
		dispatch.WithLogger(c.logger.Named("dispatch")),
	}
	if c.encoder != nil {
		dopts = append(dopts, dispatch.WithEncoder(c.encoder))
	}
	c.dispatcher = dispatch.NewDispatcher(c.queue, c.sender, c.cfg.ServerURL+eventsPath, headers, dopts...)
	c.dispatcher.Start(ctx)

	c.started = true
	c.logger.Info(ctx, "telemetry client started",
		logger.String("session_id", c.session.ID()),
		logger.String("platform", c.cfg.Platform),
		logger.Int("batch_size", c.cfg.BatchSize),
		logger.Int("flush_interval_sec", c.cfg.FlushIntervalSec),
		logger.Int("queue_capacity", c.cfg.MaxQueueSize),
	)
	return nil
}

// Track records a single event. The event is stamped with the current
// session identity and queued for background delivery; when the queue
// reaches the batch threshold a flush is triggered. Returns
// ErrNotInitialized before Start, ErrInvalidEvent for an empty name or an
// unsupported property value, and ErrQueueOverflow when the queue is full.
// Recording is best-effort: every error is also logged as a warning and is
// safe to ignore.
func (c *Client) Track(ctx context.Context, name string, opts ...TrackOption) error {
	c.mu.RLock()
	started := c.started
	q, sess, disp := c.queue, c.session, c.dispatcher
	c.mu.RUnlock()

	if !started {
		c.logger.Warn(ctx, "event discarded: client not initialized",
			logger.String("event", name),
		)
		metrics.RecordEventDropped("not_initialized")
		return ErrNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		c.logger.Warn(ctx, "event discarded: empty name")
		metrics.RecordEventDropped("invalid_event")
		return ErrInvalidEvent
	}

	d := draft{category: event.DefaultCategory}
	for _, opt := range opts {
		opt(&d)
	}
	if d.err != nil {
		c.logger.Warn(ctx, "event discarded: bad property",
			logger.String("event", name),
			logger.Error(d.err),
		)
		metrics.RecordEventDropped("invalid_event")
		return fmt.Errorf("%w: %w", ErrInvalidEvent, d.err)
	}

	e := sess.Stamp(event.Event{
		Name:         name,
		Category:     d.category,
		NumericValue: d.numeric,
		StringValue:  d.str,
		Properties:   d.props,
	})

	if !q.Enqueue(e) {
		atomic.AddInt64(&c.dropped, 1)
		metrics.RecordEventDropped("overflow")
		c.logger.Warn(ctx, "event dropped: queue full",
			logger.String("event", name),
			logger.Int("capacity", q.Capacity()),
		)
		return ErrQueueOverflow
	}

	if q.Size() >= c.cfg.BatchSize {
		disp.TryTrigger(dispatch.TriggerThreshold)
	}
	return nil
}

// SetPlayerID attaches the player identity to all events recorded from now
// on; already queued events keep the identity they were stamped with. May
// be called before Start, and the identity persists across NewSession.
func (c *Client) SetPlayerID(id string) {
	c.mu.Lock()
	c.playerID = id
	sess := c.session
	c.mu.Unlock()

	if sess != nil {
		sess.SetPlayerID(id)
	}
}

// NewSession rotates the session: later events carry a fresh session id and
// the session clock restarts. Returns the new id, or "" before Start.
func (c *Client) NewSession() string {
	c.mu.RLock()
	sess := c.session
	c.mu.RUnlock()

	if sess == nil {
		return ""
	}
	id := sess.Renew()
	c.logger.Info(context.Background(), "session renewed",
		logger.String("session_id", id),
	)
	return id
}

// Flush synchronously drains the queue once. Delivery failures leave the
// events queued for a later cycle; a flush already in flight makes this a
// no-op. Returns ErrNotInitialized before Start.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.RLock()
	started := c.started
	disp := c.dispatcher
	c.mu.RUnlock()

	if !started {
		return ErrNotInitialized
	}
	disp.Flush(ctx, dispatch.TriggerManual)
	return nil
}

// NotifyPause tells the client the host is pausing; queued events are
// pushed toward delivery without blocking the caller.
func (c *Client) NotifyPause(ctx context.Context) error {
	return c.lifecycleFlush(ctx)
}

// NotifyFocusLost mirrors NotifyPause for focus loss.
func (c *Client) NotifyFocusLost(ctx context.Context) error {
	return c.lifecycleFlush(ctx)
}

func (c *Client) lifecycleFlush(ctx context.Context) error {
	c.mu.RLock()
	started := c.started
	disp := c.dispatcher
	c.mu.RUnlock()

	if !started {
		return ErrNotInitialized
	}
	c.logger.Debug(ctx, "lifecycle flush requested")
	disp.TryTrigger(dispatch.TriggerLifecycle)
	return nil
}

// Close ends the session: a session_end event is synthesized, the
// background worker is stopped, and a final synchronous drain runs under
// ctx's deadline. Events that still cannot be delivered are abandoned.
// Closing a client that is not started is a no-op.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	q, sess, disp := c.queue, c.session, c.dispatcher
	c.mu.Unlock()

	// Same shape TrackSessionEnd emits; enqueued directly because the
	// client already refuses new Track calls.
	e := sess.Stamp(event.Event{
		Name:         "session_end",
		Category:     "session",
		NumericValue: sess.Duration().Seconds(),
	})
	if !q.Enqueue(e) {
		atomic.AddInt64(&c.dropped, 1)
		metrics.RecordEventDropped("overflow")
	}

	stopErr := disp.Stop(ctx)
	disp.Flush(ctx, dispatch.TriggerLifecycle)

	c.mu.Lock()
	c.sentBase += disp.Sent()
	c.mu.Unlock()

	c.logger.Info(ctx, "telemetry client closed",
		logger.String("session_id", sess.ID()),
		logger.Any("events_sent", disp.Sent()),
		logger.Int("queue_remaining", q.Size()),
	)
	return stopErr
}

// Stats is a point-in-time snapshot of the client's counters.
type Stats struct {
	// EventsSent counts events delivered successfully over the client's
	// lifetime, across Close/Start cycles.
	EventsSent int64

	// EventsDropped counts only overflow drops; events rejected before
	// enqueueing (not initialized, invalid) are not included.
	EventsDropped int64

	// QueueSize is the current queue occupancy.
	QueueSize int

	// Initialized reports whether the client is started.
	Initialized bool

	// SessionID is the current session identifier, "" before Start.
	SessionID string
}

// Stats reports delivery counters and queue occupancy.
func (c *Client) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		EventsDropped: atomic.LoadInt64(&c.dropped),
		EventsSent:    c.sentBase,
		Initialized:   c.started,
	}
	if c.started && c.dispatcher != nil {
		s.EventsSent += c.dispatcher.Sent()
	}
	if c.queue != nil {
		s.QueueSize = c.queue.Size()
	}
	if c.session != nil {
		s.SessionID = c.session.ID()
	}
	return s
}
