package model

import (
	"errors"
	"fmt"
	"time"
)

// AttendanceStatus enumerates the states an attendance moves through.
type AttendanceStatus string

const (
	StatusRegistered AttendanceStatus = "registered"
	StatusConfirmed  AttendanceStatus = "confirmed"
	StatusCancelled  AttendanceStatus = "cancelled"
	StatusAttended   AttendanceStatus = "attended"
)

// ErrInvalidTransition is returned when a status change violates the
// attendance state machine.
var ErrInvalidTransition = errors.New("invalid attendance status transition")

// transitions lists, per target status, the statuses it may be reached
// from.  Cancelled is not terminal: a new registration for the same
// (event, participant) pair reuses the cancelled row and moves it back
// to registered.
var transitions = map[AttendanceStatus][]AttendanceStatus{
	StatusRegistered: {StatusCancelled},
	StatusConfirmed:  {StatusRegistered},
	StatusCancelled:  {StatusRegistered, StatusConfirmed},
	StatusAttended:   {StatusRegistered, StatusConfirmed},
}

// ValidStatus reports whether s is one of the known attendance states.
func ValidStatus(s AttendanceStatus) bool {
	switch s {
	case StatusRegistered, StatusConfirmed, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// Attendance links one participant to one event.  At most one row
// exists per (event, participant) pair; cancelling keeps the row so a
// later re-registration reuses it instead of inserting a duplicate.
//
// Fields:
//  ID               – opaque identifier (UUID string), attendances.id.
//  EventID          – event being attended.
//  ParticipantID    – participant attending.
//  Status           – current state, see the constants above.
//  RegistrationDate – when the participant (last) registered.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last modification timestamp.
type Attendance struct {
	ID               string           `json:"id"`
	EventID          string           `json:"event_id"`
	ParticipantID    string           `json:"participant_id"`
	Status           AttendanceStatus `json:"status"`
	RegistrationDate time.Time        `json:"registration_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewAttendance builds a registered attendance for the given pair with
// the registration date set to now.  The ID is assigned by the
// repository on insert.
func NewAttendance(eventID, participantID string) *Attendance {
	return &Attendance{
		EventID:          eventID,
		ParticipantID:    participantID,
		Status:           StatusRegistered,
		RegistrationDate: time.Now().UTC(),
	}
}

// CanTransition reports whether the attendance may move to the target
// status from its current one.
func (a *Attendance) CanTransition(to AttendanceStatus) bool {
	for _, from := range transitions[to] {
		if a.Status == from {
			return true
		}
	}
	return false
}

// Transition moves the attendance to the target status, or returns
// ErrInvalidTransition (wrapped with both states for context) when the
// state machine forbids the move.
func (a *Attendance) Transition(to AttendanceStatus) error {
	if !a.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	return nil
}

// Active reports whether the attendance currently consumes a seat.
func (a *Attendance) Active() bool { return a.Status != StatusCancelled }
