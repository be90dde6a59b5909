package gametel

import (
	"context"

	"github.com/gametel/gametel-go/internal/config"
)

// Config holds client configuration. ServerURL and APIKey are required;
// every other field has a default, and the ranged fields are clamped into
// their documented bounds when the client is built.
type Config = config.Config

// Defaults and bounds for the ranged fields, re-exported for hosts that
// build configs programmatically.
const (
	DefaultFlushIntervalSec = config.DefaultFlushIntervalSec
	DefaultBatchSize        = config.DefaultBatchSize
	DefaultMaxQueueSize     = config.DefaultMaxQueueSize

	MinFlushIntervalSec = config.MinFlushIntervalSec
	MaxFlushIntervalSec = config.MaxFlushIntervalSec
	MinBatchSize        = config.MinBatchSize
	MaxBatchSize        = config.MaxBatchSize
	MinQueueCapacity    = config.MinQueueCapacity
	MaxQueueCapacity    = config.MaxQueueCapacity
)

// DefaultConfig returns a Config with every optional field at its default.
func DefaultConfig() Config {
	return *config.New()
}

// LoadConfig builds a Config by layering defaults, an optional YAML file
// named by the GAMETEL_CONFIG environment variable, and GAMETEL_* variables.
func LoadConfig(ctx context.Context) (Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return Config{}, err
	}
	return *cfg, nil
}
