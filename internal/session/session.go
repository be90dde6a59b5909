// Package session owns the process-wide identity stamped onto every event.
//
// Identity fields are resolved at enqueue time, not at flush time, so an
// event always reflects the session state at the moment it occurred.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gametel/gametel-go/internal/event"
)

// Clock supplies the current time. Injectable for tests.
type Clock func() time.Time

// Context carries the session id, player id, and the per-process platform
// and app version. Safe for concurrent use.
type Context struct {
	mu         sync.RWMutex
	sessionID  string
	playerID   string
	platform   string
	appVersion string
	startedAt  time.Time
	now        Clock
}

// New creates a session context with a fresh session id. Platform and app
// version are fixed for the lifetime of the context.
func New(platform, appVersion string, opts ...Option) *Context {
	c := &Context{
		platform:   platform,
		appVersion: appVersion,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.sessionID = uuid.NewString()
	c.startedAt = c.now()

	return c
}

// ID returns the current session id.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// PlayerID returns the current player id, empty until SetPlayerID.
func (c *Context) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetPlayerID sets the player id. It applies to subsequently stamped events
// only; events already enqueued keep the id they were stamped with.
func (c *Context) SetPlayerID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
}

// Renew regenerates the session id and restarts the session clock. Returns
// the new id.
func (c *Context) Renew() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = uuid.NewString()
	c.startedAt = c.now()
	return c.sessionID
}

// Duration reports the elapsed time since the session started or was last
// renewed.
func (c *Context) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Sub(c.startedAt)
}

// Stamp resolves the identity fields and client timestamp on e and returns
// the stamped copy.
func (c *Context) Stamp(e event.Event) event.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e.SessionID = c.sessionID
	e.PlayerID = c.playerID
	e.Platform = c.platform
	e.AppVersion = c.appVersion
	e.ClientTS = event.Timestamp(c.now())

	return e
}
