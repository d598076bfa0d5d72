package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/utils"
)

// JWTAuth validates the Bearer access token and stores its subject, hotel
// and role under KeyUserID, KeyHotelID and KeyRole.  The hotel in the
// token is the only tenant a request can act on.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            raw, ok := strings.CutPrefix(auth, "Bearer ")
            if !ok || strings.TrimSpace(raw) == "" {
                // EventSource cannot set headers; the stream passes the token in the query.
                raw = c.QueryParam("access_token")
            }
            if strings.TrimSpace(raw) == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
            }
            c.Set(KeyUserID, claims.UserID)
            c.Set(KeyHotelID, claims.HotelID)
            c.Set(KeyRole, claims.Role)
            return next(c)
        }
    }
}
