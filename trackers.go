package gametel

import (
	"context"
)

// Convenience trackers with a fixed naming contract. Each is a thin builder
// over Track; the generated names, categories, and property keys are stable
// so collector-side queries can rely on them.

// TrackSessionStart records the beginning of a play session.
func (c *Client) TrackSessionStart(ctx context.Context) error {
	return c.Track(ctx, "session_start",
		WithCategory("session"),
	)
}

// TrackSessionEnd records the end of a play session. The numeric value
// carries the session duration in seconds.
func (c *Client) TrackSessionEnd(ctx context.Context) error {
	c.mu.RLock()
	sess := c.session
	c.mu.RUnlock()

	opts := []TrackOption{WithCategory("session")}
	if sess != nil {
		opts = append(opts, WithNumericValue(sess.Duration().Seconds()))
	}
	return c.Track(ctx, "session_end", opts...)
}

// TrackLevelStart records a level attempt beginning.
func (c *Client) TrackLevelStart(ctx context.Context, level string) error {
	return c.Track(ctx, "level_start",
		WithCategory("progression"),
		WithProperty("level", level),
	)
}

// TrackLevelComplete records a cleared level; the numeric value carries the
// score.
func (c *Client) TrackLevelComplete(ctx context.Context, level string, score float64) error {
	return c.Track(ctx, "level_complete",
		WithCategory("progression"),
		WithProperty("level", level),
		WithNumericValue(score),
	)
}

// TrackLevelFail records a failed level attempt.
func (c *Client) TrackLevelFail(ctx context.Context, level string) error {
	return c.Track(ctx, "level_fail",
		WithCategory("progression"),
		WithProperty("level", level),
	)
}

// TrackCurrencyEarned records soft or hard currency gained. The amount
// travels in the numeric value only, never duplicated into properties.
func (c *Client) TrackCurrencyEarned(ctx context.Context, currency, source string, amount float64) error {
	return c.Track(ctx, "currency_earned",
		WithCategory("economy"),
		WithProperty("currency", currency),
		WithProperty("source", source),
		WithNumericValue(amount),
	)
}

// TrackCurrencySpent records currency spent at a sink.
func (c *Client) TrackCurrencySpent(ctx context.Context, currency, sink string, amount float64) error {
	return c.Track(ctx, "currency_spent",
		WithCategory("economy"),
		WithProperty("currency", currency),
		WithProperty("sink", sink),
		WithNumericValue(amount),
	)
}

// TrackItemAcquired records an inventory item entering the player's
// possession.
func (c *Client) TrackItemAcquired(ctx context.Context, itemID, source string) error {
	return c.Track(ctx, "item_acquired",
		WithCategory("inventory"),
		WithProperty("item_id", itemID),
		WithProperty("source", source),
	)
}

// TrackError records a client-side error report; the message travels in the
// string value.
func (c *Client) TrackError(ctx context.Context, severity, message string) error {
	return c.Track(ctx, "error",
		WithCategory("error"),
		WithProperty("severity", severity),
		WithStringValue(message),
	)
}

// TrackUIInteraction records an interface interaction.
func (c *Client) TrackUIInteraction(ctx context.Context, element, action string) error {
	return c.Track(ctx, "ui_interaction",
		WithCategory("ui"),
		WithProperty("element", element),
		WithProperty("action", action),
	)
}

// TrackTutorialStep records tutorial progress; the numeric value carries
// the step index.
func (c *Client) TrackTutorialStep(ctx context.Context, step string, index int) error {
	return c.Track(ctx, "tutorial_step",
		WithCategory("tutorial"),
		WithProperty("step", step),
		WithNumericValue(float64(index)),
	)
}
