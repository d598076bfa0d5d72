package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/handler"
)

// RegisterReservations registers the reservation lifecycle under
// /v1/reservations.  PUT and PATCH both apply a partial update.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, p Protection) {
    g := e.Group("/v1/reservations", p.chain(true)...)
    g.POST("", h.Create)
    g.GET("", h.List)
    g.GET("/:id", h.Get)
    g.PUT("/:id", h.Update)
    g.PATCH("/:id", h.Update)
    g.DELETE("/:id", h.Delete)
}
