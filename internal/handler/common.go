package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/service"
)

// ok writes the success envelope.
func ok(c echo.Context, status int, data any) error {
    return c.JSON(status, echo.Map{"success": true, "data": data})
}

// fail writes the failure envelope.
func fail(c echo.Context, status int, message string) error {
    return c.JSON(status, echo.Map{"success": false, "message": message})
}

// respondError maps service errors to HTTP statuses.  Anything unknown is
// logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
    switch {
    case service.IsUnauthorized(err):
        return fail(c, http.StatusUnauthorized, err.Error())
    case service.IsValidation(err):
        return fail(c, http.StatusBadRequest, err.Error())
    case service.IsNotFound(err):
        return fail(c, http.StatusNotFound, err.Error())
    case service.IsConflict(err):
        return fail(c, http.StatusConflict, err.Error())
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return fail(c, http.StatusInternalServerError, "internal server error")
}

// hotelID returns the tenant set by the auth middleware, 0 when absent.
func hotelID(c echo.Context) uint64 {
    id, _ := middleware.HotelID(c)
    return id
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id != 0
}
