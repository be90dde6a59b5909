package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL         string // Collector base URL
	APIKey          string // API key the SDK presents on delivery
	Players         int    // Number of simulated players
	EventsPerPlayer int    // Scripted tracker calls per player
	Workers         int    // Concurrent players
	BatchSize       int    // SDK batch size used by each player
	Seed            int64  // Script seed; a fixed seed reproduces the run
	Verbose         bool   // Enable per-player logging
}

// Stats holds load run statistics.
type Stats struct {
	PlayersCompleted int
	PlayersFailed    int
	EventsTracked    int
	TrackErrors      int
	EventsDelivered  int64
	EventsDropped    int64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
