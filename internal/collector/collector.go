// Package collector implements the development collector the SDK ships
// with: an HTTP ingest endpoint with an API-key check, a bounded store of
// recently accepted events, and optional injected latency and failures for
// exercising the client's retry path end to end.
package collector

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/pkg/logger"
	"github.com/gametel/gametel-go/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultRandomSeed = 42
)

// Service is the ingest service behind the collector's HTTP surface. It
// authorizes payloads, simulates collector conditions, and retains accepted
// events for inspection.
type Service struct {
	store       Store
	apiKey      string
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64

	// Fault injection source, guarded for concurrent handlers
	rngMu sync.Mutex
	rng   *rand.Rand

	started  time.Time
	rejected int64

	log logger.Logger
}

// New creates a collector service with configuration options.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		rng:     rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic for reproducible runs
		started: time.Now(),
		log:     logger.Get().Named("collector"),
	}
	if s.store == nil {
		s.store = NewMemStore()
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Authorize reports whether the presented API key may ingest. An empty
// configured key disables the check.
func (s *Service) Authorize(key string) bool {
	if s.apiKey == "" {
		return true
	}
	return key == s.apiKey
}

// Admit applies the injected latency and failure rate to one payload. It
// returns ErrInjectedFailure when the payload is chosen to fail, and the
// context error when the client goes away mid-wait.
func (s *Service) Admit(ctx context.Context) error {
	if s.maxLatency > 0 {
		s.rngMu.Lock()
		latency := s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
		s.rngMu.Unlock()

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(latency):
		}
	}

	if s.failureRate > 0 {
		s.rngMu.Lock()
		fail := s.rng.Float64() < s.failureRate
		s.rngMu.Unlock()
		if fail {
			return ErrInjectedFailure
		}
	}
	return nil
}

// Accept stores a validated batch and records it in the metrics.
func (s *Service) Accept(ctx context.Context, events []event.Event) {
	s.store.Add(ctx, events...)
	metrics.RecordEventsReceived(len(events))
	s.log.Debug(ctx, "accepted batch", logger.Int("events", len(events)))
}

// RecordRejection counts one rejected payload for stats and metrics.
func (s *Service) RecordRejection(reason string) {
	atomic.AddInt64(&s.rejected, 1)
	metrics.RecordPayloadRejected(reason)
}

// Recent returns up to n retained events, newest first.
func (s *Service) Recent(ctx context.Context, n int) []event.Event {
	return s.store.Recent(ctx, n)
}

// GetStats returns current service statistics.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	return map[string]interface{}{
		"uptimeSeconds":    time.Since(s.started).Seconds(),
		"eventsReceived":   s.store.TotalEvents(ctx),
		"batchesReceived":  s.store.TotalBatches(ctx),
		"eventsRetained":   s.store.Count(ctx),
		"payloadsRejected": atomic.LoadInt64(&s.rejected),
	}
}
