package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/internal/wire"
)

// Ingest limits.
const (
	maxPayloadBytes = 1 << 20 // a full batch is ~100 events; 1 MiB is generous
)

// IngestDependencies defines the interface for payload processing.
type IngestDependencies interface {
	// Authorize reports whether the presented API key may ingest.
	Authorize(key string) bool

	// Admit applies injected latency and failures to one payload.
	Admit(ctx context.Context) error

	// Accept stores a validated batch.
	Accept(ctx context.Context, events []event.Event)

	// RecordRejection counts one rejected payload.
	RecordRejection(reason string)
}

// EventsHandler handles batch ingest requests.
type EventsHandler struct {
	deps IngestDependencies
}

// NewEventsHandler creates a new ingest handler.
func NewEventsHandler(deps IngestDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleIngest handles POST /v1/events requests.
func (h *EventsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "collector.post_events"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if !h.deps.Authorize(r.Header.Get("X-API-Key")) {
		h.deps.RecordRejection("unauthorized")
		writeError(w, http.StatusUnauthorized, "unauthorized", fmt.Errorf("%s: %w", op, ErrUnauthorized))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.deps.RecordRejection("oversized")
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", fmt.Errorf("%s: %w: %w", op, ErrBadPayload, err))
		return
	}

	events, err := wire.Decode(body)
	if err != nil {
		h.deps.RecordRejection("malformed")
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadPayload, err))
		return
	}
	if len(events) == 0 {
		h.deps.RecordRejection("empty")
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: empty batch", op, ErrBadPayload))
		return
	}
	for i, e := range events {
		if err := validateEvent(e); err != nil {
			h.deps.RecordRejection("invalid_event")
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: event %d: %w", op, ErrBadPayload, i, err))
			return
		}
	}

	if err := h.deps.Admit(r.Context()); err != nil {
		if errors.Is(err, ErrInjectedFailure) {
			h.deps.RecordRejection("injected_failure")
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%s: %w", op, err))
		return
	}

	h.deps.Accept(r.Context(), events)
	writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", Events: len(events)})
}

// validateEvent checks the required payload fields for one event.
func validateEvent(e event.Event) error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return errors.New("missing event_name")
	case strings.TrimSpace(e.Category) == "":
		return errors.New("missing event_category")
	case strings.TrimSpace(e.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(e.Platform) == "":
		return errors.New("missing platform")
	case strings.TrimSpace(e.AppVersion) == "":
		return errors.New("missing app_version")
	case strings.TrimSpace(e.ClientTS) == "":
		return errors.New("missing client_ts")
	}
	if _, err := time.Parse(event.TimestampLayout, e.ClientTS); err != nil {
		return errors.New("invalid client_ts; must be UTC with millisecond precision and Z suffix")
	}
	return nil
}
