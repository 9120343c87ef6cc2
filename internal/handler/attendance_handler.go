package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AttendanceHandler serves the attendance endpoints.
type AttendanceHandler struct {
	svc AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	if svc == nil {
		panic("nil service passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{svc: svc}
}

// Register handles POST /v1/attendances.  It books one seat on the
// event for the participant.
func (h *AttendanceHandler) Register(c echo.Context) error {
	var req RegisterAttendanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": strings.Join(errs, "; ")})
	}
	attendance, err := h.svc.Register(c.Request().Context(), req.EventID, req.ParticipantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": attendance})
}

// Cancel handles POST /v1/attendances/:id/cancel.
func (h *AttendanceHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attendance id"})
	}
	attendance, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": attendance})
}

// Confirm handles POST /v1/attendances/:id/confirm.
func (h *AttendanceHandler) Confirm(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attendance id"})
	}
	attendance, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": attendance})
}

// MarkAttended handles POST /v1/attendances/:id/attended.
func (h *AttendanceHandler) MarkAttended(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attendance id"})
	}
	attendance, err := h.svc.MarkAttended(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": attendance})
}

// ListByEvent handles GET /v1/events/:id/attendances.
func (h *AttendanceHandler) ListByEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	attendances, err := h.svc.ListByEvent(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": attendances})
}

// ListByParticipant handles GET /v1/participants/:id/attendances.
func (h *AttendanceHandler) ListByParticipant(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant id"})
	}
	attendances, err := h.svc.ListByParticipant(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": attendances})
}
