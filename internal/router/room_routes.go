package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/handler"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RegisterRooms registers room type and room unit endpoints.  Creating
// room types is limited to ADMIN.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, p Protection) {
    g := e.Group("/v1", p.chain(true)...)

    // ---- Rooms ----
    g.POST("/rooms", h.CreateRoom, middleware.RequireRole(model.RoleAdmin))
    g.GET("/rooms", h.ListRooms)

    // ---- Room units ----
    g.GET("/room-units", h.ListUnits)
    g.PATCH("/room-units/:id/status", h.SetUnitStatus)
}

// RegisterEvents registers the live update stream.  It bypasses the
// response cache.
func RegisterEvents(e *echo.Echo, h *handler.EventsHandler, p Protection) {
    g := e.Group("/v1", p.chain(false)...)
    g.GET("/events", h.Stream)
}
