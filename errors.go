package gametel

import (
	"errors"

	"github.com/gametel/gametel-go/internal/config"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNotInitialized is returned by recording calls before Start (or
	// after Close). The event is discarded without touching any counter.
	ErrNotInitialized = errors.New("client not initialized")

	// ErrInvalidEvent marks events rejected before enqueueing: an empty
	// name or a property value outside the supported set.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrQueueOverflow marks events dropped because the queue was full.
	ErrQueueOverflow = errors.New("event queue overflow")

	// ErrMissingAPIKey is returned when constructing a client without an
	// API key.
	ErrMissingAPIKey = config.ErrMissingAPIKey
)
