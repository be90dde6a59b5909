package gametel

import (
	"fmt"

	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSender overrides the transport used for delivery.
func WithSender(s Sender) Option {
	return func(c *Client) {
		if s != nil {
			c.sender = s
		}
	}
}

// WithEncoder overrides the payload encoder.
func WithEncoder(e Encoder) Option {
	return func(c *Client) {
		if e != nil {
			c.encoder = e
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
			c.customLogger = true
		}
	}
}

// WithClock overrides the time source used for session stamps.
func WithClock(clk Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// TrackOption customizes a single tracked event.
type TrackOption func(*draft)

// draft accumulates Track options before the event is built. A conversion
// failure is carried here and rejects the whole event in Track.
type draft struct {
	category string
	numeric  float64
	str      string
	props    event.Properties
	err      error
}

// WithCategory overrides the default "general" category.
func WithCategory(category string) TrackOption {
	return func(d *draft) {
		if category != "" {
			d.category = category
		}
	}
}

// WithNumericValue sets the numeric measurement carried by the event.
func WithNumericValue(v float64) TrackOption {
	return func(d *draft) {
		d.numeric = v
	}
}

// WithStringValue sets the free-form string payload carried by the event.
func WithStringValue(s string) TrackOption {
	return func(d *draft) {
		d.str = s
	}
}

// WithProperty attaches one property. Allowed values are strings, numbers,
// bools, and nil; anything else fails the Track call with ErrInvalidEvent.
// Repeated keys replace the earlier value in place.
func WithProperty(key string, value any) TrackOption {
	return func(d *draft) {
		v, err := event.ValueOf(value)
		if err != nil {
			if d.err == nil {
				d.err = fmt.Errorf("property %q: %w", key, err)
			}
			return
		}
		d.props.Set(key, v)
	}
}

// WithProperties merges a map of properties, keys sorted for determinism.
func WithProperties(m map[string]any) TrackOption {
	return func(d *draft) {
		props, err := event.FromMap(m)
		if err != nil {
			if d.err == nil {
				d.err = err
			}
			return
		}
		for _, p := range props {
			d.props.Set(p.Key, p.Value)
		}
	}
}
