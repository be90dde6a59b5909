// Package wire produces and parses the delivery payload.
//
// The payload contract is a single JSON object {"events":[...]} whose array
// elements carry the snake_case event fields. The flush engine only depends
// on the Encoder interface, so the envelope shape stays swappable.
package wire

import (
	"encoding/json"

	"github.com/gametel/gametel-go/internal/event"
)

// Envelope wraps a batch of events for delivery.
type Envelope struct {
	Events []event.Event `json:"events"`
}

// Encoder converts a batch of events into payload bytes.
type Encoder interface {
	Encode(events []event.Event) ([]byte, error)
}

// JSONEncoder is the default Encoder.
type JSONEncoder struct{}

// NewJSONEncoder creates the default JSON payload encoder.
func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

// Encode implements Encoder. A nil batch encodes as an empty array, never
// JSON null, so collectors can range without a nil check.
func (*JSONEncoder) Encode(events []event.Event) ([]byte, error) {
	if events == nil {
		events = []event.Event{}
	}
	return json.Marshal(Envelope{Events: events})
}

// Decode parses a payload produced by Encode. Used by the collector and by
// tests to recover the delivered batch.
func Decode(data []byte) ([]event.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Events, nil
}
