// Package dispatch drains the event queue in batches and reconciles
// delivery success and failure.
package dispatch

import (
	"time"

	"github.com/gametel/gametel-go/internal/wire"
	"github.com/gametel/gametel-go/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithBatchSize sets how many events one delivery carries at most.
func WithBatchSize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.batchSize = size
		}
	}
}

// WithFlushInterval sets the timer trigger period.
func WithFlushInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.flushInterval = interval
		}
	}
}

// WithDeliveryTimeout bounds a single delivery attempt.
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.deliveryTimeout = timeout
		}
	}
}

// WithEncoder replaces the payload encoder.
func WithEncoder(enc wire.Encoder) Option {
	return func(d *Dispatcher) {
		if enc != nil {
			d.encoder = enc
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}
