package event

import "errors"

// Sentinel kinds for event model errors.
var (
	ErrUnsupportedValue = errors.New("unsupported property value type")
)
