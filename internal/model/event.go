package model

import (
	"errors"
	"time"
)

// ErrNoSpotsAvailable is returned when a spot is reserved on an event
// that has no remaining capacity.
var ErrNoSpotsAvailable = errors.New("no available spots")

// ErrAllSpotsFree is returned when a spot is released on an event whose
// counter is already at full capacity.  It indicates an accounting bug
// in the caller rather than a user-facing condition.
var ErrAllSpotsFree = errors.New("all spots already free")

// Event represents a scheduled event with a fixed seat capacity.  The
// AvailableSpots counter tracks the seats not consumed by an active
// (non-cancelled) attendance.  The invariant 0 <= AvailableSpots <=
// Capacity must hold at all times; the methods below enforce it for
// in-memory mutations and the database schema guards it as a last
// resort.
//
// Fields:
//  ID             – opaque identifier (UUID string), events.id.
//  Name           – display name of the event.
//  Description    – free-form description.
//  Date           – when the event takes place.
//  Location       – where the event takes place.
//  Capacity       – immutable upper bound of seats (positive).
//  AvailableSpots – remaining free seats.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
type Event struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date"`
	Location       string    `json:"location"`
	Capacity       int       `json:"capacity"`
	AvailableSpots int       `json:"available_spots"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewEvent builds an Event with all seats free.  The ID is assigned by
// the repository on insert.
func NewEvent(name, description, location string, date time.Time, capacity int) *Event {
	return &Event{
		Name:           name,
		Description:    description,
		Date:           date,
		Location:       location,
		Capacity:       capacity,
		AvailableSpots: capacity,
	}
}

// HasAvailableSpots reports whether at least one seat is free.
func (e *Event) HasAvailableSpots() bool { return e.AvailableSpots > 0 }

// OccupiedSpots returns the number of seats consumed by active
// attendances.
func (e *Event) OccupiedSpots() int { return e.Capacity - e.AvailableSpots }

// ReserveSpot consumes one seat.  It returns ErrNoSpotsAvailable when
// the event is full.
func (e *Event) ReserveSpot() error {
	if e.AvailableSpots <= 0 {
		return ErrNoSpotsAvailable
	}
	e.AvailableSpots--
	return nil
}

// ReleaseSpot frees one seat.  It returns ErrAllSpotsFree when the
// counter is already at capacity, since releasing a seat that was
// never consumed would break the accounting invariant.
func (e *Event) ReleaseSpot() error {
	if e.AvailableSpots >= e.Capacity {
		return ErrAllSpotsFree
	}
	e.AvailableSpots++
	return nil
}
