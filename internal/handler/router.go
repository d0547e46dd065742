package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/pkg/middleware"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// RouterDeps carries everything route registration needs
type RouterDeps struct {
	Availability *AvailabilityHandler
	Booking      *BookingHandler
	AdminCatalog *AdminCatalogHandler
	AdminUser    *AdminUserHandler
	Guest        *GuestHandler
	Health       *HealthHandler

	Actors     repository.ActorRepository
	HashAPIKey func(string) string
	JWTSecret  string

	// RateLimit guards the public API group; nil disables limiting
	RateLimit gin.HandlerFunc
	// Idempotency replays keyed mutating requests; nil disables replay
	Idempotency gin.HandlerFunc

	ServiceName string
}

// RegisterRoutes mounts the public API, the staff API and the health probes.
// Public endpoints authenticate with an integration API key; staff endpoints
// carry a JWT and load the full actor for policy checks.
func RegisterRoutes(router *gin.Engine, deps RouterDeps) {
	router.Use(telemetry.TracingMiddleware(deps.ServiceName))

	router.GET("/health/live", deps.Health.Live)
	router.GET("/health/ready", deps.Health.Ready)

	api := router.Group("/api/v1")
	if deps.RateLimit != nil {
		api.Use(deps.RateLimit)
	}
	api.Use(middleware.APIKeyAuth(apiKeyValidator(deps.Actors, deps.HashAPIKey)))
	if deps.Idempotency != nil {
		api.Use(deps.Idempotency)
	}
	{
		api.GET("/availability/search", deps.Availability.Search)
		api.GET("/availability/check", deps.Availability.Check)
		api.GET("/quotes", deps.Availability.Quote)

		api.POST("/bookings", deps.Booking.Create)
		api.GET("/bookings/:id", deps.Booking.Get)
		api.GET("/bookings/reference/:reference", deps.Booking.GetByReference)
		api.POST("/bookings/:id/confirm", deps.Booking.Confirm)
		api.POST("/bookings/:id/cancel", deps.Booking.Cancel)
		api.POST("/bookings/:id/reserve", deps.Booking.Reserve)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(&middleware.JWTConfig{Secret: deps.JWTSecret}))
	admin.Use(middleware.RequireRole(
		domain.RoleAdmin.String(),
		domain.RoleResortManager.String(),
	))
	{
		admin.POST("/resorts", deps.AdminCatalog.CreateResort)
		admin.GET("/resorts", deps.AdminCatalog.ListResorts)
		admin.GET("/resorts/:id", deps.AdminCatalog.GetResort)
		admin.PUT("/resorts/:id", deps.AdminCatalog.UpdateResort)
		admin.DELETE("/resorts/:id", deps.AdminCatalog.DeleteResort)
		admin.GET("/resorts/:id/bookings", deps.AdminCatalog.ListResortBookings)

		admin.POST("/room-types", deps.AdminCatalog.CreateRoomType)
		admin.GET("/room-types/:id", deps.AdminCatalog.GetRoomType)
		admin.PUT("/room-types/:id", deps.AdminCatalog.UpdateRoomType)
		admin.DELETE("/room-types/:id", deps.AdminCatalog.DeleteRoomType)

		admin.POST("/rate-plans", deps.AdminCatalog.CreateRatePlan)
		admin.PUT("/rate-plans/:id", deps.AdminCatalog.UpdateRatePlan)
		admin.DELETE("/rate-plans/:id", deps.AdminCatalog.DeleteRatePlan)

		admin.POST("/seasonal-rates", deps.AdminCatalog.CreateSeasonalRate)
		admin.PUT("/seasonal-rates/:id", deps.AdminCatalog.UpdateSeasonalRate)
		admin.DELETE("/seasonal-rates/:id", deps.AdminCatalog.DeleteSeasonalRate)

		admin.POST("/amenities", deps.AdminCatalog.CreateAmenity)
		admin.DELETE("/amenities/:id", deps.AdminCatalog.DeleteAmenity)

		admin.POST("/bookings/:id/complete", deps.AdminCatalog.CompleteBooking)

		admin.POST("/users", deps.AdminUser.CreateUser)
		admin.GET("/users", deps.AdminUser.ListUsers)
		admin.GET("/users/:id", deps.AdminUser.GetUser)
		admin.PUT("/users/:id", deps.AdminUser.UpdateUser)
		admin.DELETE("/users/:id", deps.AdminUser.DeleteUser)
		admin.POST("/users/:id/resorts", deps.AdminUser.AssignResort)
		admin.GET("/users/:id/resorts", deps.AdminUser.ListAssignments)
		admin.DELETE("/users/:id/resorts/:resortID", deps.AdminUser.UnassignResort)

		admin.PUT("/guests", deps.Guest.Upsert)
		admin.GET("/guests/:id", deps.Guest.Get)
	}
}
