package gametel

import (
	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/internal/session"
	"github.com/gametel/gametel-go/internal/transport"
	"github.com/gametel/gametel-go/internal/wire"
)

// Aliases for the internal types that appear in the public API, so hosts can
// build custom senders and encoders without reaching into internal packages.
type (
	// Event is a single telemetry record.
	Event = event.Event

	// Value is a property value: string, number, bool, or null.
	Value = event.Value

	// Property is one key/value pair attached to an event.
	Property = event.Property

	// Properties is an insertion-ordered set of event properties.
	Properties = event.Properties

	// Sender delivers an encoded payload to a collector endpoint.
	Sender = transport.Sender

	// Encoder turns a batch of events into a wire payload.
	Encoder = wire.Encoder

	// Clock supplies the current time. Override it in tests.
	Clock = session.Clock
)

// String builds a string property value.
func String(s string) Value { return event.String(s) }

// Number builds a numeric property value.
func Number(f float64) Value { return event.Number(f) }

// Bool builds a boolean property value.
func Bool(b bool) Value { return event.Bool(b) }

// Null builds the null property value.
func Null() Value { return event.Null() }

// ValueOf converts a Go value into a property Value. Supported inputs are
// strings, numbers, bools, and nil.
func ValueOf(v any) (Value, error) { return event.ValueOf(v) }
