package gametel_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"
	"time"

	gametel "github.com/gametel/gametel-go"
	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"
)

// captureSender records deliveries for assertions. Configurable failures
// exercise the retry path.
type captureSender struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	failAll   bool
	endpoints []string
	headers   []map[string]string
	batches   [][]gametel.Event
}

func (s *captureSender) Send(_ context.Context, endpoint string, payload []byte, headers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failAll || s.calls <= s.failFirst {
		return errors.New("delivery refused")
	}

	var env struct {
		Events []gametel.Event `json:"events"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	s.endpoints = append(s.endpoints, endpoint)
	s.headers = append(s.headers, headers)
	s.batches = append(s.batches, env.Events)
	return nil
}

func (s *captureSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *captureSender) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *captureSender) delivered() []gametel.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []gametel.Event
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func (s *captureSender) deliveredNames() []string {
	events := s.delivered()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

func (s *captureSender) lastEndpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.endpoints) == 0 {
		return ""
	}
	return s.endpoints[len(s.endpoints)-1]
}

func (s *captureSender) lastHeaders() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

func eventually(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func testConfig() gametel.Config {
	return gametel.Config{
		ServerURL:        "https://telemetry.test",
		APIKey:           "test-key",
		FlushIntervalSec: 60,
		BatchSize:        5,
		MaxQueueSize:     100,
	}
}

func newTestClient(sender gametel.Sender, opts ...gametel.Option) *gametel.Client {
	opts = append([]gametel.Option{gametel.WithSender(sender)}, opts...)
	client, err := gametel.New(testConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return client
}

func TestClientNew(t *testing.T) {
	convey.Convey("Given client construction", t, func() {
		convey.Convey("When the API key is missing", func() {
			client, err := gametel.New(gametel.Config{ServerURL: "https://telemetry.test"})

			convey.Convey("Then construction fails with the sentinel", func() {
				convey.So(client, convey.ShouldBeNil)
				convey.So(errors.Is(err, gametel.ErrMissingAPIKey), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the server URL is missing", func() {
			client, err := gametel.New(gametel.Config{APIKey: "test-key"})

			convey.Convey("Then construction fails", func() {
				convey.So(client, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "server_url")
			})
		})

		convey.Convey("When the config is complete", func() {
			client, err := gametel.New(testConfig())

			convey.Convey("Then the client is built but not initialized", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(client, convey.ShouldNotBeNil)
				convey.So(client.Stats().Initialized, convey.ShouldBeFalse)
				convey.So(client.Stats().SessionID, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestClientLifecycle(t *testing.T) {
	convey.Convey("Given a client", t, func() {
		ctx := context.Background()
		sender := &captureSender{}
		client := newTestClient(sender)

		convey.Convey("When recording before Start", func() {
			err := client.Track(ctx, "too_early")

			convey.Convey("Then the event is rejected without counting a drop", func() {
				convey.So(errors.Is(err, gametel.ErrNotInitialized), convey.ShouldBeTrue)
				convey.So(client.Stats().EventsDropped, convey.ShouldEqual, 0)
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When flushing before Start", func() {
			convey.So(errors.Is(client.Flush(ctx), gametel.ErrNotInitialized), convey.ShouldBeTrue)
			convey.So(errors.Is(client.NotifyPause(ctx), gametel.ErrNotInitialized), convey.ShouldBeTrue)
			convey.So(errors.Is(client.NotifyFocusLost(ctx), gametel.ErrNotInitialized), convey.ShouldBeTrue)
		})

		convey.Convey("When started", func() {
			convey.So(client.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = client.Close(context.Background()) })

			convey.Convey("Then the client reports a valid session", func() {
				stats := client.Stats()
				convey.So(stats.Initialized, convey.ShouldBeTrue)
				convey.So(uuid.Validate(stats.SessionID), convey.ShouldBeNil)
			})

			convey.Convey("And starting again is a no-op", func() {
				before := client.Stats().SessionID
				convey.So(client.Start(ctx), convey.ShouldBeNil)
				convey.So(client.Stats().SessionID, convey.ShouldEqual, before)
			})
		})
	})
}

func TestClientTrack(t *testing.T) {
	convey.Convey("Given a started client", t, func() {
		ctx := context.Background()
		sender := &captureSender{}
		client := newTestClient(sender)
		convey.So(client.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() { _ = client.Close(context.Background()) })

		convey.Convey("When tracking events below the batch threshold", func() {
			convey.So(client.Track(ctx, "first"), convey.ShouldBeNil)
			convey.So(client.Track(ctx, "second", gametel.WithCategory("combat")), convey.ShouldBeNil)
			convey.So(client.Track(ctx, "third", gametel.WithNumericValue(12.5), gametel.WithStringValue("note")), convey.ShouldBeNil)

			convey.Convey("Then nothing is delivered until a manual flush", func() {
				time.Sleep(50 * time.Millisecond)
				convey.So(sender.callCount(), convey.ShouldEqual, 0)
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 3)

				convey.So(client.Flush(ctx), convey.ShouldBeNil)

				convey.So(sender.batchCount(), convey.ShouldEqual, 1)
				convey.So(sender.deliveredNames(), convey.ShouldResemble, []string{"first", "second", "third"})
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 0)
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 3)
			})

			convey.Convey("Then events carry the session identity and defaults", func() {
				convey.So(client.Flush(ctx), convey.ShouldBeNil)

				events := sender.delivered()
				convey.So(len(events), convey.ShouldEqual, 3)
				convey.So(events[0].Category, convey.ShouldEqual, "general")
				convey.So(events[1].Category, convey.ShouldEqual, "combat")
				convey.So(events[2].NumericValue, convey.ShouldEqual, 12.5)
				convey.So(events[2].StringValue, convey.ShouldEqual, "note")
				for _, e := range events {
					convey.So(e.SessionID, convey.ShouldEqual, client.Stats().SessionID)
					convey.So(e.Platform, convey.ShouldEqual, runtime.GOOS)
					convey.So(e.AppVersion, convey.ShouldEqual, "0.0.0")
					_, err := time.Parse("2006-01-02T15:04:05.000Z", e.ClientTS)
					convey.So(err, convey.ShouldBeNil)
				}
			})

			convey.Convey("And the delivery targets the events endpoint with auth headers", func() {
				convey.So(client.Flush(ctx), convey.ShouldBeNil)

				convey.So(sender.lastEndpoint(), convey.ShouldEqual, "https://telemetry.test/v1/events")
				convey.So(sender.lastHeaders()["X-API-Key"], convey.ShouldEqual, "test-key")
				convey.So(sender.lastHeaders()["Content-Type"], convey.ShouldEqual, "application/json")
			})
		})

		convey.Convey("When tracking with properties", func() {
			convey.So(client.Track(ctx, "purchase",
				gametel.WithProperty("item", "sword"),
				gametel.WithProperty("rare", true),
				gametel.WithProperty("slot", 3),
			), convey.ShouldBeNil)
			convey.So(client.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then properties survive the round trip in order", func() {
				events := sender.delivered()
				convey.So(len(events), convey.ShouldEqual, 1)
				convey.So(events[0].Properties.Keys(), convey.ShouldResemble, []string{"item", "rare", "slot"})

				item, ok := events[0].Properties.Get("item")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(item, convey.ShouldResemble, gametel.String("sword"))

				slot, ok := events[0].Properties.Get("slot")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(slot, convey.ShouldResemble, gametel.Number(3))
			})
		})

		convey.Convey("When tracking an event with an empty name", func() {
			err := client.Track(ctx, "   ")

			convey.Convey("Then it is rejected as invalid without counting a drop", func() {
				convey.So(errors.Is(err, gametel.ErrInvalidEvent), convey.ShouldBeTrue)
				convey.So(client.Stats().EventsDropped, convey.ShouldEqual, 0)
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When tracking an unsupported property value", func() {
			err := client.Track(ctx, "bad_event",
				gametel.WithProperty("payload", []string{"not", "allowed"}),
			)

			convey.Convey("Then it is rejected as invalid", func() {
				convey.So(errors.Is(err, gametel.ErrInvalidEvent), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "payload")
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a fixed clock is injected", func() {
			fixed := time.Date(2024, 3, 15, 10, 30, 45, 123_000_000, time.UTC)
			clocked := newTestClient(sender, gametel.WithClock(func() time.Time { return fixed }))
			convey.So(clocked.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = clocked.Close(context.Background()) })

			convey.So(clocked.Track(ctx, "stamped"), convey.ShouldBeNil)
			convey.So(clocked.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then the client timestamp is deterministic", func() {
				events := sender.delivered()
				convey.So(len(events), convey.ShouldEqual, 1)
				convey.So(events[0].ClientTS, convey.ShouldEqual, "2024-03-15T10:30:45.123Z")
			})
		})
	})
}

func TestClientThreshold(t *testing.T) {
	convey.Convey("Given a started client with batch size 5", t, func() {
		ctx := context.Background()
		sender := &captureSender{}
		client := newTestClient(sender)
		convey.So(client.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() { _ = client.Close(context.Background()) })

		convey.Convey("When the queue reaches the batch threshold", func() {
			for i := 0; i < 5; i++ {
				convey.So(client.Track(ctx, fmt.Sprintf("event%d", i)), convey.ShouldBeNil)
			}

			convey.Convey("Then the batch is delivered without a manual flush", func() {
				ok := eventually(func() bool { return sender.callCount() >= 1 }, 2*time.Second)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(sender.deliveredNames(), convey.ShouldResemble,
					[]string{"event0", "event1", "event2", "event3", "event4"})

				drained := eventually(func() bool { return client.Stats().QueueSize == 0 }, 2*time.Second)
				convey.So(drained, convey.ShouldBeTrue)
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 5)
			})
		})
	})
}

func TestClientRetry(t *testing.T) {
	convey.Convey("Given a client whose first delivery fails", t, func() {
		ctx := context.Background()
		sender := &captureSender{failFirst: 1}
		client := newTestClient(sender)
		convey.So(client.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() { _ = client.Close(context.Background()) })

		convey.So(client.Track(ctx, "one"), convey.ShouldBeNil)
		convey.So(client.Track(ctx, "two"), convey.ShouldBeNil)
		convey.So(client.Track(ctx, "three"), convey.ShouldBeNil)

		convey.Convey("When the flush fails", func() {
			convey.So(client.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then the batch is requeued, not dropped", func() {
				convey.So(sender.callCount(), convey.ShouldEqual, 1)
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 3)
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 0)
				convey.So(client.Stats().EventsDropped, convey.ShouldEqual, 0)
			})

			convey.Convey("And the next flush delivers the same events in order", func() {
				convey.So(client.Flush(ctx), convey.ShouldBeNil)

				convey.So(sender.deliveredNames(), convey.ShouldResemble, []string{"one", "two", "three"})
				convey.So(client.Stats().QueueSize, convey.ShouldEqual, 0)
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 3)
			})
		})
	})
}

func TestClientOverflow(t *testing.T) {
	convey.Convey("Given a client whose collector is unreachable", t, func() {
		ctx := context.Background()
		sender := &captureSender{failAll: true}
		client := newTestClient(sender)
		convey.So(client.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() { _ = client.Close(context.Background()) })

		convey.Convey("When more events arrive than the queue can hold", func() {
			drops := 0
			for i := 0; i < 150; i++ {
				if errors.Is(client.Track(ctx, fmt.Sprintf("event%03d", i)), gametel.ErrQueueOverflow) {
					drops++
				}
			}
			enqueued := 150 - drops

			convey.Convey("Then overflow events are dropped and counted, queued ones survive", func() {
				convey.So(drops, convey.ShouldBeGreaterThan, 0)

				settled := eventually(func() bool {
					return client.Stats().QueueSize == enqueued
				}, 2*time.Second)
				convey.So(settled, convey.ShouldBeTrue)
				convey.So(client.Stats().EventsDropped, convey.ShouldEqual, int64(drops))
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestClientPlayerID(t *testing.T) {
	convey.Convey("Given a client", t, func() {
		ctx := context.Background()
		sender := &captureSender{}
		client := newTestClient(sender)

		convey.Convey("When the player id is set before Start", func() {
			client.SetPlayerID("player-7")
			convey.So(client.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = client.Close(context.Background()) })

			convey.So(client.Track(ctx, "early"), convey.ShouldBeNil)
			convey.So(client.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then events carry it from the first session", func() {
				events := sender.delivered()
				convey.So(len(events), convey.ShouldEqual, 1)
				convey.So(events[0].PlayerID, convey.ShouldEqual, "player-7")
			})
		})

		convey.Convey("When the player id changes mid-stream", func() {
			convey.So(client.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = client.Close(context.Background()) })

			convey.So(client.Track(ctx, "anonymous"), convey.ShouldBeNil)
			client.SetPlayerID("player-8")
			convey.So(client.Track(ctx, "identified"), convey.ShouldBeNil)
			convey.So(client.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then only later events carry the new identity", func() {
				events := sender.delivered()
				convey.So(len(events), convey.ShouldEqual, 2)
				convey.So(events[0].PlayerID, convey.ShouldBeEmpty)
				convey.So(events[1].PlayerID, convey.ShouldEqual, "player-8")
			})
		})

		convey.Convey("When the session is renewed", func() {
			convey.So(client.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = client.Close(context.Background()) })
			client.SetPlayerID("player-9")

			convey.So(client.Track(ctx, "before"), convey.ShouldBeNil)
			first := client.Stats().SessionID
			next := client.NewSession()
			convey.So(client.Track(ctx, "after"), convey.ShouldBeNil)
			convey.So(client.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then the session id rotates and the player id persists", func() {
				convey.So(next, convey.ShouldNotEqual, first)
				convey.So(uuid.Validate(next), convey.ShouldBeNil)

				events := sender.delivered()
				convey.So(len(events), convey.ShouldEqual, 2)
				convey.So(events[0].SessionID, convey.ShouldEqual, first)
				convey.So(events[1].SessionID, convey.ShouldEqual, next)
				convey.So(events[0].PlayerID, convey.ShouldEqual, "player-9")
				convey.So(events[1].PlayerID, convey.ShouldEqual, "player-9")
			})
		})

		convey.Convey("When renewing before Start", func() {
			convey.So(client.NewSession(), convey.ShouldBeEmpty)
		})
	})
}

func TestClientLifecycleFlush(t *testing.T) {
	convey.Convey("Given a started client with queued events", t, func() {
		ctx := context.Background()
		sender := &captureSender{}
		client := newTestClient(sender)
		convey.So(client.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() { _ = client.Close(context.Background()) })

		convey.So(client.Track(ctx, "pending1"), convey.ShouldBeNil)
		convey.So(client.Track(ctx, "pending2"), convey.ShouldBeNil)

		convey.Convey("When the host pauses", func() {
			convey.So(client.NotifyPause(ctx), convey.ShouldBeNil)

			convey.Convey("Then queued events are delivered in the background", func() {
				ok := eventually(func() bool { return client.Stats().QueueSize == 0 }, 2*time.Second)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(sender.deliveredNames(), convey.ShouldResemble, []string{"pending1", "pending2"})
			})
		})

		convey.Convey("When the host loses focus", func() {
			convey.So(client.NotifyFocusLost(ctx), convey.ShouldBeNil)

			convey.Convey("Then queued events are delivered in the background", func() {
				ok := eventually(func() bool { return client.Stats().QueueSize == 0 }, 2*time.Second)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 2)
			})
		})
	})
}

func TestClientClose(t *testing.T) {
	convey.Convey("Given a started client with queued events", t, func() {
		ctx := context.Background()
		sender := &captureSender{}
		client := newTestClient(sender)
		convey.So(client.Start(ctx), convey.ShouldBeNil)

		convey.So(client.Track(ctx, "queued1"), convey.ShouldBeNil)
		convey.So(client.Track(ctx, "queued2"), convey.ShouldBeNil)

		convey.Convey("When the client closes", func() {
			convey.So(client.Close(ctx), convey.ShouldBeNil)

			convey.Convey("Then pending events and a session_end are delivered", func() {
				names := sender.deliveredNames()
				convey.So(names, convey.ShouldResemble, []string{"queued1", "queued2", "session_end"})

				events := sender.delivered()
				last := events[len(events)-1]
				convey.So(last.Category, convey.ShouldEqual, "session")
				convey.So(last.NumericValue, convey.ShouldBeGreaterThanOrEqualTo, 0)

				stats := client.Stats()
				convey.So(stats.Initialized, convey.ShouldBeFalse)
				convey.So(stats.EventsSent, convey.ShouldEqual, 3)
			})

			convey.Convey("And recording afterwards is rejected", func() {
				convey.So(errors.Is(client.Track(ctx, "late"), gametel.ErrNotInitialized), convey.ShouldBeTrue)
			})

			convey.Convey("And closing again is a no-op", func() {
				convey.So(client.Close(ctx), convey.ShouldBeNil)
			})

			convey.Convey("And the client can start a fresh session", func() {
				closedSession := client.Stats().SessionID
				convey.So(client.Start(ctx), convey.ShouldBeNil)
				convey.Reset(func() { _ = client.Close(context.Background()) })

				convey.So(client.Stats().SessionID, convey.ShouldNotEqual, closedSession)
				convey.So(client.Track(ctx, "fresh"), convey.ShouldBeNil)
				convey.So(client.Flush(ctx), convey.ShouldBeNil)
				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 4)
			})
		})
	})
}

func TestClientCollectorRoundTrip(t *testing.T) {
	convey.Convey("Given a live HTTP collector", t, func() {
		ctx := context.Background()

		var (
			mu     sync.Mutex
			method string
			path   string
			apiKey string
			body   []byte
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			method = r.Method
			path = r.URL.Path
			apiKey = r.Header.Get("X-API-Key")
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.ServerURL = srv.URL + "/" // trailing slash must be stripped
		cfg.APIKey = "round-key"
		client, err := gametel.New(cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(client.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() { _ = client.Close(context.Background()) })

		convey.Convey("When an event travels through the real transport", func() {
			convey.So(client.TrackCurrencyEarned(ctx, "gold", "quest_complete", 100), convey.ShouldBeNil)
			convey.So(client.Flush(ctx), convey.ShouldBeNil)

			convey.Convey("Then the collector receives the envelope intact", func() {
				mu.Lock()
				defer mu.Unlock()

				convey.So(method, convey.ShouldEqual, http.MethodPost)
				convey.So(path, convey.ShouldEqual, "/v1/events")
				convey.So(apiKey, convey.ShouldEqual, "round-key")

				var env struct {
					Events []gametel.Event `json:"events"`
				}
				convey.So(json.Unmarshal(body, &env), convey.ShouldBeNil)
				convey.So(len(env.Events), convey.ShouldEqual, 1)
				convey.So(env.Events[0].Name, convey.ShouldEqual, "currency_earned")
				convey.So(env.Events[0].Category, convey.ShouldEqual, "economy")
				convey.So(env.Events[0].NumericValue, convey.ShouldEqual, 100)
				convey.So(env.Events[0].Properties.Keys(), convey.ShouldResemble, []string{"currency", "source"})

				convey.So(client.Stats().EventsSent, convey.ShouldEqual, 1)
			})
		})
	})
}
