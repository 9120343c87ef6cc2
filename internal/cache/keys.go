package cache

// Cache keys are built centrally so the services that populate entries
// and the mutations that invalidate them can never disagree on
// spelling.

const (
	// AllEventsKey caches the full event listing.
	AllEventsKey = "events:all"
	// AvailableEventsKey caches the listing of events with free spots.
	AvailableEventsKey = "events:available"
	// AllParticipantsKey caches the full participant listing.
	AllParticipantsKey = "participants:all"
)

// EventKey is the single-item key for one event.
func EventKey(eventID string) string { return "event:" + eventID }

// EventAttendancesKey caches the attendance listing of one event.
func EventAttendancesKey(eventID string) string { return "event:" + eventID + ":attendances" }

// ParticipantKey is the single-item key for one participant.
func ParticipantKey(participantID string) string { return "participant:" + participantID }

// ParticipantAttendancesKey caches the attendance listing of one
// participant.
func ParticipantAttendancesKey(participantID string) string {
	return "participant:" + participantID + ":attendances"
}
