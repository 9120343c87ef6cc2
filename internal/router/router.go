package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"eventattendance/internal/handler"
)

// RegisterRoutes wires every endpoint onto the provided Echo instance.
// The health check lives at the root; the API proper is grouped under
// /v1.
func RegisterRoutes(e *echo.Echo, events *handler.EventHandler, participants *handler.ParticipantHandler, attendances *handler.AttendanceHandler) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// Event CRUD, listings and statistics.  The static /available route
	// is registered before /:id so it is not captured as an ID.
	v1.POST("/events", events.Create)
	v1.GET("/events", events.List)
	v1.GET("/events/available", events.ListAvailable)
	v1.GET("/events/:id", events.Get)
	v1.PATCH("/events/:id", events.Update)
	v1.DELETE("/events/:id", events.Delete)
	v1.GET("/events/:id/statistics", events.Statistics)
	v1.GET("/events/:id/attendances", attendances.ListByEvent)

	// Participants.
	v1.POST("/participants", participants.Create)
	v1.GET("/participants", participants.List)
	v1.GET("/participants/:id", participants.Get)
	v1.GET("/participants/:id/attendances", attendances.ListByParticipant)

	// Attendance lifecycle.
	v1.POST("/attendances", attendances.Register)
	v1.POST("/attendances/:id/cancel", attendances.Cancel)
	v1.POST("/attendances/:id/confirm", attendances.Confirm)
	v1.POST("/attendances/:id/attended", attendances.MarkAttended)
}
