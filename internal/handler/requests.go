package handler

import (
	"time"

	"eventattendance/internal/model"
)

// Request DTOs validate shape and format before the core is invoked.
// Validate returns a list of problems; nil or empty means valid (the
// multi-message shape keeps all field errors in one 400 response).

// CreateEventRequest is the payload of POST /v1/events.
type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"` // RFC 3339
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
}

// Validate checks required fields and formats.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.Capacity <= 0 {
		errs = append(errs, "capacity must be a positive integer")
	}
	if _, err := time.Parse(time.RFC3339, r.Date); err != nil {
		errs = append(errs, "date must be an RFC 3339 timestamp")
	}
	return errs
}

// ParsedDate returns the date field as a time.Time.  Call only after
// Validate succeeded.
func (r *CreateEventRequest) ParsedDate() time.Time {
	t, _ := time.Parse(time.RFC3339, r.Date)
	return t.UTC()
}

// UpdateEventRequest is the payload of PATCH /v1/events/:id.  Absent
// fields are left untouched.
type UpdateEventRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"` // RFC 3339
	Location    *string `json:"location"`
	Capacity    *int    `json:"capacity"`
}

// Validate checks the provided fields.
func (r *UpdateEventRequest) Validate() []string {
	var errs []string
	if r.Name != nil && *r.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if r.Capacity != nil && *r.Capacity <= 0 {
		errs = append(errs, "capacity must be a positive integer")
	}
	if r.Date != nil {
		if _, err := time.Parse(time.RFC3339, *r.Date); err != nil {
			errs = append(errs, "date must be an RFC 3339 timestamp")
		}
	}
	return errs
}

// ParsedDate returns the date field, or nil when absent.  Call only
// after Validate succeeded.
func (r *UpdateEventRequest) ParsedDate() *time.Time {
	if r.Date == nil {
		return nil
	}
	t, _ := time.Parse(time.RFC3339, *r.Date)
	t = t.UTC()
	return &t
}

// CreateParticipantRequest is the payload of POST /v1/participants.
type CreateParticipantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks required fields and contact formats.
func (r *CreateParticipantRequest) Validate() []string {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if !model.ValidEmail(r.Email) {
		errs = append(errs, "email is not a valid address")
	}
	if !model.ValidPhone(r.Phone) {
		errs = append(errs, "phone is not a valid number")
	}
	return errs
}

// RegisterAttendanceRequest is the payload of POST /v1/attendances.
type RegisterAttendanceRequest struct {
	EventID       string `json:"event_id"`
	ParticipantID string `json:"participant_id"`
}

// Validate checks that both references are well-formed UUIDs.
func (r *RegisterAttendanceRequest) Validate() []string {
	var errs []string
	if !validUUID(r.EventID) {
		errs = append(errs, "event_id must be a valid UUID")
	}
	if !validUUID(r.ParticipantID) {
		errs = append(errs, "participant_id must be a valid UUID")
	}
	return errs
}
