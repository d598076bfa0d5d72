package middleware

// identity.go holds the context keys JWTAuth fills in and the helpers the
// handlers and the other middleware read them with.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    KeyUserID  = "user_id"
    KeyHotelID = "hotel_id"
    KeyRole    = "role"
)

// HotelID returns the tenant of the authenticated request.  The second
// result is false when no valid hotel is present.
func HotelID(c echo.Context) (uint64, bool) {
    return ctxUint(c, KeyHotelID)
}

// UserID returns the authenticated staff user.
func UserID(c echo.Context) (uint64, bool) {
    return ctxUint(c, KeyUserID)
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
    r, _ := c.Get(KeyRole).(string)
    return r
}

func ctxUint(c echo.Context, key string) (uint64, bool) {
    switch t := c.Get(key).(type) {
    case uint64:
        return t, t != 0
    case int:
        return uint64(t), t > 0
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        return n, err == nil && n != 0
    }
    return 0, false
}

// tenantKey is the hotel id as a string, "anon" before authentication.
func tenantKey(c echo.Context) string {
    if id, ok := HotelID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}

// userKey is the user id as a string, "anon" before authentication.
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
