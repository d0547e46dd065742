package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/pkg/response"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// BookingHandler serves the public booking lifecycle endpoints
type BookingHandler struct {
	bookings service.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.create")
	defer span.End()

	req := &dto.CreateBookingRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	booking, err := h.bookings.CreateBooking(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, dto.FromBooking(booking))
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get")
	defer span.End()

	booking, err := h.bookings.GetBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromBooking(booking))
}

// GetByReference handles GET /api/v1/bookings/reference/:reference
func (h *BookingHandler) GetByReference(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get_by_reference")
	defer span.End()

	booking, err := h.bookings.GetBookingByReference(ctx, c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromBooking(booking))
}

// Confirm handles POST /api/v1/bookings/:id/confirm
func (h *BookingHandler) Confirm(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.confirm")
	defer span.End()

	booking, err := h.bookings.ConfirmBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromBooking(booking))
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.cancel")
	defer span.End()

	booking, err := h.bookings.CancelBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromBooking(booking))
}

// Reserve handles POST /api/v1/bookings/:id/reserve. Safe to retry: an
// already reserved booking returns its existing reservation rows.
func (h *BookingHandler) Reserve(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.reserve")
	defer span.End()

	reservations, err := h.bookings.ReserveInventory(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"booking_id":   c.Param("id"),
		"reservations": reservations,
	})
}
