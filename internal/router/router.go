package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/iliyamo/hotel-reservation/internal/handler"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Protection is the middleware every tenant endpoint runs behind, in
// order: authentication, role check, then rate limiting and the response
// cache.  Both of the latter key on the hotel so they must follow JWTAuth.
type Protection struct {
    JWTSecret string
    RateLimit echo.MiddlewareFunc
    Cache     echo.MiddlewareFunc
}

func (p Protection) chain(cached bool) []echo.MiddlewareFunc {
    mws := []echo.MiddlewareFunc{
        middleware.JWTAuth(p.JWTSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
    }
    if p.RateLimit != nil {
        mws = append(mws, p.RateLimit)
    }
    if cached && p.Cache != nil {
        mws = append(mws, p.Cache)
    }
    return mws
}

// RegisterRoutes registers routes that do not require authentication:
// the health check, Prometheus metrics and uploaded guest photos.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, uploadDir string) {
    e.GET("/healthz", h.Health)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
    e.Static("/uploads", uploadDir)
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// account endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p Protection) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    // Works with a refresh token in the body or a bearer token alone.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1", p.chain(false)...)
    auth.GET("/me", a.Me)
    auth.POST("/users", a.CreateStaff, middleware.RequireRole(model.RoleAdmin))
}
