// Package transport delivers encoded payloads to the collector.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gametel/gametel-go/pkg/metrics"
)

// Default transport configuration constants.
const (
	maxDrainBytes = 4 << 10 // response bodies are drained for connection reuse
)

// Sender delivers one payload to an endpoint. Transport errors, timeouts,
// and non-2xx responses are all reported as errors satisfying
// errors.Is(err, ErrDelivery); the flush engine treats them identically.
type Sender interface {
	Send(ctx context.Context, endpoint string, payload []byte, headers map[string]string) error
}

// HTTPSender is the default Sender backed by net/http.
type HTTPSender struct {
	client *http.Client
}

var _ Sender = (*HTTPSender)(nil)

// NewHTTPSender creates an HTTP sender with configuration options.
func NewHTTPSender(opts ...Option) *HTTPSender {
	s := &HTTPSender{
		client: &http.Client{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Send posts the payload to the endpoint. The attempt is bounded by ctx; the
// caller owns the delivery timeout.
func (s *HTTPSender) Send(ctx context.Context, endpoint string, payload []byte, headers map[string]string) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("transport", "request_failed")
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	metrics.RecordDeliveryLatency(float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordErrorByComponent("transport", "bad_status")
		return fmt.Errorf("deliver batch: %w", &StatusError{Code: resp.StatusCode})
	}

	return nil
}
