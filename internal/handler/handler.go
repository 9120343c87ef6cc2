// Package handler contains the HTTP handlers.  Handlers are thin
// glue: they bind and validate request payloads, call into the service
// layer, and translate sentinel errors to status codes.  No business
// rule lives here.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventattendance/internal/model"
	"eventattendance/internal/repository"
	"eventattendance/internal/service"
)

// EventService is the slice of the core consumed by the event
// endpoints.  Implemented by service.EventService.
type EventService interface {
	Create(ctx context.Context, in service.CreateEventInput) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListAvailable(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, id string, in service.UpdateEventInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context, id string) (*service.EventStatistics, error)
}

// ParticipantService is the slice of the core consumed by the
// participant endpoints.  Implemented by service.ParticipantService.
type ParticipantService interface {
	Create(ctx context.Context, in service.CreateParticipantInput) (*model.Participant, error)
	Get(ctx context.Context, id string) (*model.Participant, error)
	List(ctx context.Context) ([]model.Participant, error)
}

// AttendanceService is the slice of the core consumed by the
// attendance endpoints.  Implemented by service.AttendanceService.
type AttendanceService interface {
	Register(ctx context.Context, eventID, participantID string) (*model.Attendance, error)
	Cancel(ctx context.Context, attendanceID string) (*model.Attendance, error)
	Confirm(ctx context.Context, attendanceID string) (*model.Attendance, error)
	MarkAttended(ctx context.Context, attendanceID string) (*model.Attendance, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error)
	ListByParticipant(ctx context.Context, participantID string) ([]model.Attendance, error)
}

// validUUID reports whether s parses as a UUID.
func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// pathID extracts and validates the UUID path parameter named name.
func pathID(c echo.Context, name string) (string, bool) {
	id := c.Param(name)
	return id, validUUID(id)
}

// writeError maps a service error onto an HTTP response.  Not-found
// errors become 404, business-rule violations 409, store timeouts 503
// (the caller may retry), everything else 500.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, repository.ErrAttendanceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrAlreadyCancelled),
		errors.Is(err, repository.ErrDuplicateEmail),
		errors.Is(err, repository.ErrCapacityBelowOccupancy),
		errors.Is(err, model.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable, retry later"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
