package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"eventattendance/internal/service"
)

// EventHandler serves the event endpoints.
type EventHandler struct {
	svc EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService) *EventHandler {
	if svc == nil {
		panic("nil service passed to NewEventHandler")
	}
	return &EventHandler{svc: svc}
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": strings.Join(errs, "; ")})
	}
	event, err := h.svc.Create(c.Request().Context(), service.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.ParsedDate(),
		Location:    req.Location,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": event})
}

// List handles GET /v1/events.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.svc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// ListAvailable handles GET /v1/events/available.
func (h *EventHandler) ListAvailable(c echo.Context) error {
	events, err := h.svc.ListAvailable(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	event, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": event})
}

// Update handles PATCH /v1/events/:id.
func (h *EventHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": strings.Join(errs, "; ")})
	}
	event, err := h.svc.Update(c.Request().Context(), id, service.UpdateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.ParsedDate(),
		Location:    req.Location,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": event})
}

// Delete handles DELETE /v1/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Statistics handles GET /v1/events/:id/statistics.
func (h *EventHandler) Statistics(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	stats, err := h.svc.Statistics(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": stats})
}
