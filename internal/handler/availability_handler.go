package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/pkg/response"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// AvailabilityHandler serves availability search, point checks and quotes
type AvailabilityHandler struct {
	availability service.AvailabilityService
	pricing      service.PricingService
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(availability service.AvailabilityService, pricing service.PricingService) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
		pricing:      pricing,
	}
}

// Search handles GET /api/v1/availability/search
func (h *AvailabilityHandler) Search(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.search")
	defer span.End()

	req := &dto.SearchRequest{}
	if err := c.ShouldBindQuery(req); err != nil {
		response.BadRequest(c, "invalid search parameters")
		return
	}

	resp, err := h.availability.Search(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, resp)
}

// checkQuery is the query payload for a point availability check
type checkQuery struct {
	RoomTypeID string `form:"room_type_id" binding:"required"`
	CheckIn    string `form:"check_in" binding:"required"`
	CheckOut   string `form:"check_out" binding:"required"`
	Units      int    `form:"units"`
}

// Check handles GET /api/v1/availability/check
func (h *AvailabilityHandler) Check(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.check")
	defer span.End()

	var q checkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "room_type_id, check_in and check_out are required")
		return
	}
	checkIn, checkOut, fields := parseStayDates(q.CheckIn, q.CheckOut)
	if fields != nil {
		response.ValidationFailed(c, "invalid stay dates", fields)
		return
	}
	if q.Units == 0 {
		q.Units = 1
	}

	available, err := h.availability.CheckAvailability(ctx, q.RoomTypeID, checkIn, checkOut, q.Units)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"room_type_id": q.RoomTypeID,
		"check_in":     q.CheckIn,
		"check_out":    q.CheckOut,
		"units":        q.Units,
		"available":    available,
	})
}

// quoteQuery is the query payload for pricing a stay
type quoteQuery struct {
	RatePlanID string `form:"rate_plan_id" binding:"required"`
	CheckIn    string `form:"check_in" binding:"required"`
	CheckOut   string `form:"check_out" binding:"required"`
	Units      int    `form:"units"`
}

// Quote handles GET /api/v1/quotes
func (h *AvailabilityHandler) Quote(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.quote")
	defer span.End()

	var q quoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "rate_plan_id, check_in and check_out are required")
		return
	}
	checkIn, checkOut, fields := parseStayDates(q.CheckIn, q.CheckOut)
	if fields != nil {
		response.ValidationFailed(c, "invalid stay dates", fields)
		return
	}
	if q.Units == 0 {
		q.Units = 1
	}

	quote, err := h.pricing.CalculateTotalPrice(ctx, q.RatePlanID, checkIn, checkOut, q.Units)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromQuote(quote))
}

func parseStayDates(checkInStr, checkOutStr string) (checkIn, checkOut time.Time, fields map[string]string) {
	fields = map[string]string{}
	var err error
	checkIn, err = time.Parse(dto.DateLayout, checkInStr)
	if err != nil {
		fields["check_in"] = "must be a date in YYYY-MM-DD format"
	}
	checkOut, err = time.Parse(dto.DateLayout, checkOutStr)
	if err != nil {
		fields["check_out"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) == 0 && !checkIn.Before(checkOut) {
		fields["check_out"] = "must be after check_in"
	}
	if len(fields) == 0 {
		return checkIn, checkOut, nil
	}
	return checkIn, checkOut, fields
}
