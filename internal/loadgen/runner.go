// Package loadgen drives real telemetry clients against a collector to
// exercise the full pipeline under concurrent load. Each simulated player
// owns a client, a session, and a deterministic action script.
package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gametel/gametel-go/pkg/logger"
)

// Runner configuration constants.
const (
	defaultPlayers          = 10
	defaultEventsPerPlayer  = 50
	defaultBatchSize        = 25
	workerChannelMultiplier = 2
	healthCheckTimeout      = 5 * time.Second
	progressInterval        = 1 * time.Second
	percentageMultiplier    = 100
)

// Run executes a complete load run against a collector.
func Run(ctx context.Context, config *Config) error {
	normalize(config)

	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadgen")

	log.Info(ctx, "starting load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.Players),
		logger.Int("eventsPerPlayer", config.EventsPerPlayer),
		logger.Int("workers", config.Workers),
		logger.Int("batchSize", config.BatchSize),
		logger.Any("seed", config.Seed))

	if err := checkCollectorHealth(ctx, config); err != nil {
		return fmt.Errorf("collector health check failed: %w", err)
	}

	if err := runPlayers(ctx, config, stats); err != nil {
		return fmt.Errorf("player simulation failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "load run completed")
	return nil
}

// normalize fills zero config fields with usable defaults.
func normalize(config *Config) {
	if config.Players < 1 {
		config.Players = defaultPlayers
	}
	if config.EventsPerPlayer < 1 {
		config.EventsPerPlayer = defaultEventsPerPlayer
	}
	if config.Workers < 1 {
		config.Workers = runtime.NumCPU() * workerChannelMultiplier
	}
	if config.Workers > config.Players {
		config.Workers = config.Players
	}
	if config.BatchSize < 1 {
		config.BatchSize = defaultBatchSize
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
}

// checkCollectorHealth verifies the collector is reachable before the run.
func checkCollectorHealth(ctx context.Context, config *Config) error {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "checking collector health")

	reqCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, config.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to collector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collector health check returned status %d", resp.StatusCode)
	}

	log.Info(ctx, "collector is healthy")
	return nil
}

// runPlayers simulates config.Players sessions with a bounded worker pool.
func runPlayers(ctx context.Context, config *Config, stats *Stats) error {
	log := logger.Get().Named("loadgen")

	var (
		completed int64
		failed    int64
		tracked   int64
		trackErrs int64
		delivered int64
		dropped   int64
	)

	playerChan := make(chan int, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range playerChan {
				if ctx.Err() != nil {
					return
				}
				result, err := simulatePlayer(ctx, config, index)
				atomic.AddInt64(&tracked, int64(result.tracked))
				atomic.AddInt64(&trackErrs, int64(result.trackErrors))
				atomic.AddInt64(&delivered, result.delivered)
				atomic.AddInt64(&dropped, result.dropped)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "player simulation failed", logger.Int("player", index), logger.Error(err))
					continue
				}
				atomic.AddInt64(&completed, 1)
				if config.Verbose {
					log.Info(ctx, "player completed",
						logger.Int("player", index),
						logger.Int("tracked", result.tracked),
						logger.Any("delivered", result.delivered))
				}
			}
		}()
	}

	// Progress reporting until the pool drains
	progressDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				log.Info(ctx, "progress",
					logger.Any("playersCompleted", atomic.LoadInt64(&completed)),
					logger.Int("players", config.Players),
					logger.Any("eventsDelivered", atomic.LoadInt64(&delivered)))
			}
		}
	}()

	for i := 0; i < config.Players; i++ {
		select {
		case <-ctx.Done():
			i = config.Players
		case playerChan <- i:
		}
	}
	close(playerChan)
	wg.Wait()
	close(progressDone)

	stats.PlayersCompleted = int(atomic.LoadInt64(&completed))
	stats.PlayersFailed = int(atomic.LoadInt64(&failed))
	stats.EventsTracked = int(atomic.LoadInt64(&tracked))
	stats.TrackErrors = int(atomic.LoadInt64(&trackErrs))
	stats.EventsDelivered = atomic.LoadInt64(&delivered)
	stats.EventsDropped = atomic.LoadInt64(&dropped)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// displayFinalStats logs the final load run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var deliveryRate, eventsPerSecond float64

	if stats.EventsTracked > 0 {
		deliveryRate = float64(stats.EventsDelivered) / float64(stats.EventsTracked) * percentageMultiplier
	}
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsDelivered) / stats.Duration.Seconds()
	}

	logger.Get().Named("loadgen").Info(ctx, "final statistics",
		logger.Int("playersCompleted", stats.PlayersCompleted),
		logger.Int("playersFailed", stats.PlayersFailed),
		logger.Int("eventsTracked", stats.EventsTracked),
		logger.Int("trackErrors", stats.TrackErrors),
		logger.Any("eventsDelivered", stats.EventsDelivered),
		logger.Any("eventsDropped", stats.EventsDropped),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("deliveryRate", deliveryRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
