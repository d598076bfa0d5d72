package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// HealthHandler reports liveness for load balancers.  With a DB attached
// it also pings the database and answers 503 when that fails.
type HealthHandler struct {
    DB *sql.DB
}

func (h *HealthHandler) Health(c echo.Context) error {
    if h != nil && h.DB != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := h.DB.PingContext(ctx); err != nil {
            return c.String(http.StatusServiceUnavailable, "db unavailable")
        }
    }
    return c.String(http.StatusOK, "ok")
}
