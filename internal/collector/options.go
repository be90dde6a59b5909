package collector

import (
	"math/rand"
	"time"

	"github.com/gametel/gametel-go/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAPIKey sets the key ingest requests must present in X-API-Key. An
// empty key disables the check.
func WithAPIKey(key string) Option {
	return func(s *Service) {
		s.apiKey = key
	}
}

// WithLatencyRange sets the injected ingest latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithFailureRate sets the fraction of admitted payloads that fail with
// ErrInjectedFailure. The rate must be in [0, 1].
func WithFailureRate(rate float64) Option {
	return func(s *Service) {
		if rate >= 0 && rate <= 1 {
			s.failureRate = rate
		}
	}
}

// WithRandSeed seeds the fault-injection source. Runs with a fixed seed are
// reproducible.
func WithRandSeed(seed int64) Option {
	return func(s *Service) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // fault injection does not need crypto randomness
	}
}

// WithLogger sets the logger used by the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
