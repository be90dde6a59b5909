package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gametel/gametel-go/internal/loadgen"
	"github.com/gametel/gametel-go/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers          = 10
	defaultEventsPerPlayer  = 50
	defaultBatchSize        = 25
	defaultWorkerMultiplier = 2
	defaultRunTimeout       = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Collector base URL")
		apiKey  = flag.String("api-key", "", "API key the SDK presents on delivery")
		players = flag.Int("players", defaultPlayers, "Number of simulated players")
		events  = flag.Int("events", defaultEventsPerPlayer, "Scripted events per player")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkerMultiplier, "Concurrent players")
		batch   = flag.Int("batch", defaultBatchSize, "SDK batch size")
		seed    = flag.Int64("seed", 0, "Script seed (0 picks one from the clock)")
		verbose = flag.Bool("verbose", false, "Enable per-player logging")
	)
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Abort on SIGINT/SIGTERM, bound the whole run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:         *baseURL,
		APIKey:          *apiKey,
		Players:         *players,
		EventsPerPlayer: *events,
		Workers:         *workers,
		BatchSize:       *batch,
		Seed:            *seed,
		Verbose:         *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
