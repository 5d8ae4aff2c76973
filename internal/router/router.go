// Package router registers the HTTP routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/park-ledger/internal/handler"
	"github.com/iliyamo/park-ledger/internal/middleware"
	"github.com/iliyamo/park-ledger/internal/utils"
)

// Handlers bundles every handler the router wires.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Booking *handler.BookingHandler
	Admin   *handler.AdminHandler
	Locker  *handler.LockerHandler
	Events  *handler.EventsHandler
}

// RegisterRoutes maps liveness, the public booking surface and the admin
// surface.  limit returns the rate limit middleware for a bucket of the
// public surface.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, limit func(bucket string) echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health.Health)

	v1 := e.Group("/v1")
	v1.POST("/quotes", h.Booking.Quote, limit(middleware.BucketQuote))
	v1.POST("/bookings/checkout", h.Booking.Checkout, limit(middleware.BucketBooking))
	v1.POST("/bookings/confirm", h.Booking.Confirm, limit(middleware.BucketBooking))
	v1.GET("/bookings", h.Booking.List)
	v1.GET("/occupancy", h.Booking.Occupancy)
	v1.GET("/settings", h.Admin.GetSettings)
	v1.GET("/events", h.Events.Stream)

	v1.POST("/admin/login", h.Auth.Login, limit(middleware.BucketLogin))

	admin := v1.Group("/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(utils.RoleAdmin))
	admin.PUT("/settings", h.Admin.SaveSettings)
	admin.GET("/sync-id", h.Admin.GetSyncID)
	admin.PUT("/sync-id", h.Admin.SetSyncID)
	admin.POST("/sync", h.Admin.SyncNow)
	admin.POST("/lockers", h.Locker.Issue)
	admin.GET("/lockers", h.Locker.List)
	admin.POST("/lockers/:id/return", h.Locker.Return)
}
