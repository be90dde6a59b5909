package collector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gametel/gametel-go/internal/event"
	"github.com/gametel/gametel-go/internal/wire"
)

// Recent query limits.
const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// RecentSource defines the interface for reading retained events.
type RecentSource interface {
	Recent(ctx context.Context, n int) []event.Event
}

// RecentHandler handles recent-event inspection requests.
type RecentHandler struct {
	deps         RecentSource
	defaultLimit int
}

// NewRecentHandler creates a new recent-events handler.
func NewRecentHandler(deps RecentSource, defaultLimit int) *RecentHandler {
	return &RecentHandler{
		deps:         deps,
		defaultLimit: defaultLimit,
	}
}

// HandleRecent handles GET /recent?limit=N requests. Events come back
// newest first in the same envelope shape the SDK delivers.
func (h *RecentHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "collector.get_recent"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: invalid limit", op, ErrBadPayload))
			return
		}
		n = parsed
	}
	if n > maxRecentLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%s: %w: limit above %d", op, ErrBadPayload, maxRecentLimit))
		return
	}

	writeJSON(w, http.StatusOK, wire.Envelope{Events: h.deps.Recent(r.Context(), n)})
}
