package transport

import (
	"errors"
	"fmt"
)

// Sentinel kinds for delivery errors.
var (
	ErrDelivery = errors.New("delivery failed")
)

// StatusError reports a non-2xx collector response. It unwraps to
// ErrDelivery so callers can match on the sentinel alone.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector returned status %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrDelivery
}
