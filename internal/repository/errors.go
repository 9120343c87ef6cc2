// Package repository implements the persistence gateway against MySQL.
// This file defines the sentinel errors shared across repositories and
// the service layer.  Callers branch on them with errors.Is; every
// other storage error propagates unmodified and no repository retries
// internally.
package repository

import "errors"

// ErrEventNotFound is returned when no event row matches the given ID.
var ErrEventNotFound = errors.New("event not found")

// ErrParticipantNotFound is returned when no participant row matches
// the given ID.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrAttendanceNotFound is returned when no attendance row matches the
// given ID or (event, participant) pair.
var ErrAttendanceNotFound = errors.New("attendance not found")

// ErrCapacityExceeded is returned when a registration finds no free
// spot on the locked event row.  Callers may retry later; a spot can
// open up through cancellations.
var ErrCapacityExceeded = errors.New("event capacity exceeded")

// ErrAlreadyRegistered is returned when the participant already holds
// an active (non-cancelled) attendance for the event.
var ErrAlreadyRegistered = errors.New("participant already registered for this event")

// ErrAlreadyCancelled is returned when cancelling an attendance that
// is already cancelled.
var ErrAlreadyCancelled = errors.New("attendance already cancelled")

// ErrDuplicateEmail is returned when creating a participant with an
// email that is already taken.
var ErrDuplicateEmail = errors.New("email already in use")

// ErrCapacityBelowOccupancy is returned when an event update would set
// the capacity below the number of currently occupied seats.
var ErrCapacityBelowOccupancy = errors.New("capacity below current occupancy")
