// Package session owns the process-wide identity stamped onto every event.
package session

// Option applies a configuration option to the Context.
type Option func(*Context)

// WithClock replaces the time source, for tests.
func WithClock(clock Clock) Option {
	return func(c *Context) {
		if clock != nil {
			c.now = clock
		}
	}
}
