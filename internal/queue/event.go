// Package queue defines the messages published after successful
// attendance mutations and the background consumer that processes
// them.  Publishing is strictly best-effort: a broker outage never
// fails or delays the registration that triggered the message.
package queue

// Actions carried by AttendanceEvent.
const (
	ActionRegistered = "registered"
	ActionCancelled  = "cancelled"
)

// AttendanceEvent is published when a registration or cancellation
// commits.  It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type AttendanceEvent struct {
	Action         string `json:"action"`
	AttendanceID   string `json:"attendance_id"`
	EventID        string `json:"event_id"`
	EventName      string `json:"event_name"`
	ParticipantID  string `json:"participant_id"`
	AvailableSpots int    `json:"available_spots"`
	OccurredAt     string `json:"occurred_at"`
}
