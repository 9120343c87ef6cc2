package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"eventattendance/internal/service"
)

// ParticipantHandler serves the participant endpoints.
type ParticipantHandler struct {
	svc ParticipantService
}

// NewParticipantHandler constructs a ParticipantHandler.
func NewParticipantHandler(svc ParticipantService) *ParticipantHandler {
	if svc == nil {
		panic("nil service passed to NewParticipantHandler")
	}
	return &ParticipantHandler{svc: svc}
}

// Create handles POST /v1/participants.
func (h *ParticipantHandler) Create(c echo.Context) error {
	var req CreateParticipantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": strings.Join(errs, "; ")})
	}
	participant, err := h.svc.Create(c.Request().Context(), service.CreateParticipantInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": participant})
}

// Get handles GET /v1/participants/:id.
func (h *ParticipantHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant id"})
	}
	participant, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": participant})
}

// List handles GET /v1/participants.
func (h *ParticipantHandler) List(c echo.Context) error {
	participants, err := h.svc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": participants})
}
