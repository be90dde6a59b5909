// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Normalize clamps ranged fields into bounds instead of rejecting them.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Defaults applied by New and by Normalize for unset fields.
const (
	DefaultFlushIntervalSec = 10
	DefaultBatchSize        = 25
	DefaultMaxQueueSize     = 1000
	DefaultAppVersion       = "0.0.0"
	DefaultLogLevel         = "info"
)

// Bounds enforced by Normalize on the ranged fields.
const (
	MinFlushIntervalSec = 5
	MaxFlushIntervalSec = 60
	MinBatchSize        = 5
	MaxBatchSize        = 100
	MinQueueCapacity    = 100
	MaxQueueCapacity    = 5000
)

// Config contains client configuration. Extend as needed.
type Config struct {
	// ServerURL is the collector base URL, e.g. "https://telemetry.example.com".
	// Normalize strips any trailing slash.
	ServerURL string `koanf:"server_url"`

	// APIKey authenticates the client against the collector.
	APIKey string `koanf:"api_key"`

	// FlushIntervalSec sets the periodic flush cadence in seconds.
	FlushIntervalSec int `koanf:"flush_interval"`

	// BatchSize caps how many events a single delivery carries.
	BatchSize int `koanf:"batch_size"`

	// MaxQueueSize bounds the in-memory event queue.
	MaxQueueSize int `koanf:"max_queue_size"`

	// Platform identifies the client platform, e.g. "linux" or "android".
	Platform string `koanf:"platform"`

	// AppVersion is the host application version stamped on every event.
	AppVersion string `koanf:"app_version"`

	// EnableLogging turns on the client's internal logger.
	EnableLogging bool `koanf:"enable_logging"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New creates a Config with defaults. Callers overriding individual fields
// afterwards should run Normalize before handing the result to a client.
func New() *Config {
	c := &Config{
		FlushIntervalSec: DefaultFlushIntervalSec,
		BatchSize:        DefaultBatchSize,
		MaxQueueSize:     DefaultMaxQueueSize,
		Platform:         runtime.GOOS,
		AppVersion:       DefaultAppVersion,
		LogLevel:         DefaultLogLevel,
	}
	return c
}

// Normalize strips the trailing slash from the server URL, fills unset
// fields with their defaults, and clamps the ranged fields into bounds.
// Out-of-range values are adjusted, not rejected.
func (c *Config) Normalize() {
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.FlushIntervalSec == 0 {
		c.FlushIntervalSec = DefaultFlushIntervalSec
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	c.FlushIntervalSec = clamp(c.FlushIntervalSec, MinFlushIntervalSec, MaxFlushIntervalSec)
	c.BatchSize = clamp(c.BatchSize, MinBatchSize, MaxBatchSize)
	c.MaxQueueSize = clamp(c.MaxQueueSize, MinQueueCapacity, MaxQueueCapacity)
	if c.Platform == "" {
		c.Platform = runtime.GOOS
	}
	if c.AppVersion == "" {
		c.AppVersion = DefaultAppVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate reports whether the config is complete enough to start a client.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server_url must not be empty", ErrInvalidConfig)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
