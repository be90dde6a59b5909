package collector

import "errors"

// Sentinel kinds for collector errors.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadPayload      = errors.New("bad payload")
	ErrInjectedFailure = errors.New("injected failure")
)
