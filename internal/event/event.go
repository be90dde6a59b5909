// Package event contains the telemetry event model passed between layers.
package event

import "time"

// DefaultCategory is assigned to events tracked without an explicit category.
const DefaultCategory = "general"

// TimestampLayout is the wire format for client timestamps: UTC with
// millisecond precision and a literal Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp renders t in the wire layout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Event is one recorded occurrence submitted by the host application.
// Field keys mirror the collector schema for /v1/events.
type Event struct {
	Name         string     `json:"event_name"`               // non-empty, validated at record time
	Category     string     `json:"event_category"`           // defaults to DefaultCategory
	PlayerID     string     `json:"player_id,omitempty"`      // empty until SetPlayerID
	SessionID    string     `json:"session_id"`               // stamped at enqueue time
	NumericValue float64    `json:"numeric_value,omitempty"`  // score, amount, duration
	StringValue  string     `json:"string_value,omitempty"`   // free-form payload, e.g. error message
	Platform     string     `json:"platform"`                 // fixed per process
	AppVersion   string     `json:"app_version"`              // fixed per process
	ClientTS     string     `json:"client_ts"`                // TimestampLayout, stamped at enqueue time
	Properties   Properties `json:"properties,omitempty"`     // ordered, closed value set
}
