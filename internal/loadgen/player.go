package loadgen

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	gametel "github.com/gametel/gametel-go"
)

// Script action cases.
const (
	caseLevelStart = iota
	caseLevelComplete
	caseLevelFail
	caseCurrencyEarned
	caseCurrencySpent
	caseItemAcquired
	caseUIInteraction
	caseTutorialStep
	caseError
	actionKinds
)

// Script value ranges.
const (
	levelCount       = 20
	maxScore         = 10000
	maxCurrency      = 500
	tutorialChapters = 5
)

// script produces a deterministic stream of gameplay actions for one player.
type script struct {
	rng *rand.Rand
}

func newScript(seed int64) *script {
	return &script{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic scripts reproduce runs
	}
}

func (s *script) level() string {
	return fmt.Sprintf("level_%d", s.rng.Intn(levelCount)+1)
}

// step issues one scripted tracker call against the client.
func (s *script) step(ctx context.Context, client *gametel.Client, index int) error {
	switch s.rng.Intn(actionKinds) {
	case caseLevelStart:
		return client.TrackLevelStart(ctx, s.level())
	case caseLevelComplete:
		return client.TrackLevelComplete(ctx, s.level(), float64(s.rng.Intn(maxScore)))
	case caseLevelFail:
		return client.TrackLevelFail(ctx, s.level())
	case caseCurrencyEarned:
		return client.TrackCurrencyEarned(ctx, "coins", "level_reward", float64(s.rng.Intn(maxCurrency)+1))
	case caseCurrencySpent:
		return client.TrackCurrencySpent(ctx, "coins", "shop", float64(s.rng.Intn(maxCurrency)+1))
	case caseItemAcquired:
		return client.TrackItemAcquired(ctx, fmt.Sprintf("item_%d", s.rng.Intn(levelCount)), "drop")
	case caseUIInteraction:
		return client.TrackUIInteraction(ctx, "main_menu", "click")
	case caseTutorialStep:
		return client.TrackTutorialStep(ctx, fmt.Sprintf("chapter_%d", s.rng.Intn(tutorialChapters)+1), index)
	case caseError:
		return client.TrackError(ctx, "warning", "scripted client error")
	default:
		return client.Track(ctx, "custom_action")
	}
}

// playerResult carries one simulated player's counters back to the runner.
type playerResult struct {
	tracked     int
	trackErrors int
	delivered   int64
	dropped     int64
}

// simulatePlayer runs one full player session against the collector: a
// client of its own, a session_start, a scripted action stream, and a Close
// that flushes the tail and emits session_end.
func simulatePlayer(ctx context.Context, config *Config, index int) (playerResult, error) {
	var result playerResult

	cfg := gametel.DefaultConfig()
	cfg.ServerURL = config.BaseURL
	cfg.APIKey = config.APIKey
	cfg.BatchSize = config.BatchSize

	client, err := gametel.New(cfg)
	if err != nil {
		return result, fmt.Errorf("create client: %w", err)
	}
	if err := client.Start(ctx); err != nil {
		return result, fmt.Errorf("start client: %w", err)
	}
	client.SetPlayerID(uuid.New().String())

	track := func(err error) {
		if err != nil {
			result.trackErrors++
			return
		}
		result.tracked++
	}

	track(client.TrackSessionStart(ctx))

	sc := newScript(config.Seed + int64(index))
	for i := 0; i < config.EventsPerPlayer; i++ {
		if ctx.Err() != nil {
			break
		}
		track(sc.step(ctx, client, i))
	}

	closeErr := client.Close(ctx)
	// Close emits session_end into the pipeline
	result.tracked++

	stats := client.Stats()
	result.delivered = stats.EventsSent
	result.dropped = stats.EventsDropped

	if closeErr != nil {
		return result, fmt.Errorf("close client: %w", closeErr)
	}
	return result, nil
}
