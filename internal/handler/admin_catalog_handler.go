package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/resortstay/resort-booking/internal/authz"
	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/pkg/response"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// AdminCatalogHandler serves the staff catalog endpoints: resorts, room
// types, rate plans, seasonal rates and amenities. Every operation runs
// through the policy engine with the fully loaded actor.
type AdminCatalogHandler struct {
	engine   *authz.Engine
	actors   repository.ActorRepository
	catalog  repository.CatalogRepository
	rates    repository.RateRepository
	bookings service.BookingService
}

// NewAdminCatalogHandler creates a new AdminCatalogHandler
func NewAdminCatalogHandler(
	engine *authz.Engine,
	actors repository.ActorRepository,
	catalog repository.CatalogRepository,
	rates repository.RateRepository,
	bookings service.BookingService,
) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		engine:   engine,
		actors:   actors,
		catalog:  catalog,
		rates:    rates,
		bookings: bookings,
	}
}

// ---- resorts ----

// CreateResort handles POST /admin/resorts. Resort creation stays
// admin-only; managers operate within resorts they already have.
func (h *AdminCatalogHandler) CreateResort(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_resort")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &dto.ResortRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	now := time.Now().UTC()
	resort := &domain.Resort{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Location:   req.Location,
		StarRating: req.StarRating,
		TaxRate:    req.TaxRate,
		Active:     boolOrDefault(req.Active, true),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, resort); err != nil {
		respondError(c, err)
		return
	}

	if err := h.catalog.CreateResort(ctx, resort); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, resort)
}

// ListResorts handles GET /admin/resorts
func (h *AdminCatalogHandler) ListResorts(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list_resorts")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionViewAny, &domain.Resort{}); err != nil {
		respondError(c, err)
		return
	}

	page, pageSize := pageParams(c)
	resorts, err := h.catalog.ListResorts(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	// managers see only their own resorts in the listing
	if actor.IsResortManager() {
		visible := resorts[:0]
		for _, resort := range resorts {
			if h.engine.Can(actor, authz.ActionView, resort) {
				visible = append(visible, resort)
			}
		}
		resorts = visible
	}

	response.SuccessWithMeta(c, resorts, dto.PageMeta{Page: page, PageSize: pageSize, Count: len(resorts)})
}

// GetResort handles GET /admin/resorts/:id
func (h *AdminCatalogHandler) GetResort(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.get_resort")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	resort, err := h.catalog.GetResort(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionView, resort); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, resort)
}

// UpdateResort handles PUT /admin/resorts/:id
func (h *AdminCatalogHandler) UpdateResort(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_resort")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	resort, err := h.catalog.GetResort(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionUpdate, resort); err != nil {
		respondError(c, err)
		return
	}

	req := &dto.ResortRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	resort.Name = req.Name
	resort.Location = req.Location
	resort.StarRating = req.StarRating
	resort.TaxRate = req.TaxRate
	resort.Active = boolOrDefault(req.Active, resort.Active)
	resort.UpdatedAt = time.Now().UTC()

	if err := h.catalog.UpdateResort(ctx, resort); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, resort)
}

// DeleteResort handles DELETE /admin/resorts/:id
func (h *AdminCatalogHandler) DeleteResort(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_resort")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	resort, err := h.catalog.GetResort(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, resort); err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteResort(ctx, resort.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": resort.ID})
}

// ---- room types ----

// CreateRoomType handles POST /admin/room-types
func (h *AdminCatalogHandler) CreateRoomType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_room_type")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &dto.RoomTypeRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	if _, err := h.catalog.GetResort(ctx, req.ResortID); err != nil {
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	roomType := &domain.RoomType{
		ID:           uuid.New().String(),
		ResortID:     req.ResortID,
		Name:         req.Name,
		MaxOccupancy: req.MaxOccupancy,
		TotalUnits:   req.TotalUnits,
		Active:       boolOrDefault(req.Active, true),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// managers may create room types, but only inside resorts they manage
	if err := h.engine.Authorize(actor, authz.ActionCreate, roomType); err != nil {
		respondError(c, err)
		return
	}
	if actor.IsResortManager() && !actor.Manages(roomType.ResortID) {
		respondError(c, domain.ErrForbidden)
		return
	}

	if err := h.catalog.CreateRoomType(ctx, roomType); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, roomType)
}

// GetRoomType handles GET /admin/room-types/:id
func (h *AdminCatalogHandler) GetRoomType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.get_room_type")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	roomType, err := h.catalog.GetRoomType(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionView, roomType); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, roomType)
}

// UpdateRoomType handles PUT /admin/room-types/:id
func (h *AdminCatalogHandler) UpdateRoomType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_room_type")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	roomType, err := h.catalog.GetRoomType(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionUpdate, roomType); err != nil {
		respondError(c, err)
		return
	}

	req := &dto.RoomTypeRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	roomType.Name = req.Name
	roomType.MaxOccupancy = req.MaxOccupancy
	roomType.TotalUnits = req.TotalUnits
	roomType.Active = boolOrDefault(req.Active, roomType.Active)
	roomType.UpdatedAt = time.Now().UTC()

	if err := h.catalog.UpdateRoomType(ctx, roomType); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, roomType)
}

// DeleteRoomType handles DELETE /admin/room-types/:id
func (h *AdminCatalogHandler) DeleteRoomType(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_room_type")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	roomType, err := h.catalog.GetRoomType(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, roomType); err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteRoomType(ctx, roomType.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": roomType.ID})
}

// ---- rate plans ----

// CreateRatePlan handles POST /admin/rate-plans
func (h *AdminCatalogHandler) CreateRatePlan(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_rate_plan")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &dto.RatePlanRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	roomType, err := h.catalog.GetRoomType(ctx, req.RoomTypeID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	plan := &domain.RatePlan{
		ID:              uuid.New().String(),
		RoomTypeID:      roomType.ID,
		ResortID:        roomType.ResortID,
		Name:            req.Name,
		DiscountPercent: req.DiscountPercent,
		Active:          boolOrDefault(req.Active, true),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, plan); err != nil {
		respondError(c, err)
		return
	}
	if actor.IsResortManager() && !actor.Manages(plan.ResortID) {
		respondError(c, domain.ErrForbidden)
		return
	}

	if err := h.catalog.CreateRatePlan(ctx, plan); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, plan)
}

// UpdateRatePlan handles PUT /admin/rate-plans/:id
func (h *AdminCatalogHandler) UpdateRatePlan(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_rate_plan")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	plan, err := h.catalog.GetRatePlan(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionUpdate, plan); err != nil {
		respondError(c, err)
		return
	}

	req := &dto.RatePlanRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	plan.Name = req.Name
	plan.DiscountPercent = req.DiscountPercent
	plan.Active = boolOrDefault(req.Active, plan.Active)
	plan.UpdatedAt = time.Now().UTC()

	if err := h.catalog.UpdateRatePlan(ctx, plan); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, plan)
}

// DeleteRatePlan handles DELETE /admin/rate-plans/:id
func (h *AdminCatalogHandler) DeleteRatePlan(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_rate_plan")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	plan, err := h.catalog.GetRatePlan(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, plan); err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteRatePlan(ctx, plan.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": plan.ID})
}

// ---- seasonal rates ----

// CreateSeasonalRate handles POST /admin/seasonal-rates
func (h *AdminCatalogHandler) CreateSeasonalRate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_seasonal_rate")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &dto.SeasonalRateRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	from, to, fields := req.Validate()
	if fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	plan, err := h.catalog.GetRatePlan(ctx, req.RatePlanID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	rate := &domain.SeasonalRate{
		ID:           uuid.New().String(),
		RatePlanID:   plan.ID,
		ResortID:     plan.ResortID,
		NightlyPrice: req.NightlyPrice,
		ValidFrom:    domain.Night(from),
		ValidTo:      domain.Night(to),
		Active:       boolOrDefault(req.Active, true),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, rate); err != nil {
		respondError(c, err)
		return
	}
	if actor.IsResortManager() && !actor.Manages(rate.ResortID) {
		respondError(c, domain.ErrForbidden)
		return
	}

	if err := h.rates.Create(ctx, rate); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, rate)
}

// UpdateSeasonalRate handles PUT /admin/seasonal-rates/:id
func (h *AdminCatalogHandler) UpdateSeasonalRate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_seasonal_rate")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	rate, err := h.rates.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionUpdate, rate); err != nil {
		respondError(c, err)
		return
	}

	req := &dto.SeasonalRateRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	from, to, fields := req.Validate()
	if fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	rate.NightlyPrice = req.NightlyPrice
	rate.ValidFrom = domain.Night(from)
	rate.ValidTo = domain.Night(to)
	rate.Active = boolOrDefault(req.Active, rate.Active)
	rate.UpdatedAt = time.Now().UTC()

	if err := h.rates.Update(ctx, rate); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, rate)
}

// DeleteSeasonalRate handles DELETE /admin/seasonal-rates/:id
func (h *AdminCatalogHandler) DeleteSeasonalRate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_seasonal_rate")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	rate, err := h.rates.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, rate); err != nil {
		respondError(c, err)
		return
	}
	if err := h.rates.Delete(ctx, rate.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": rate.ID})
}

// ---- amenities ----

// CreateAmenity handles POST /admin/amenities
func (h *AdminCatalogHandler) CreateAmenity(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_amenity")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &dto.AmenityRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	// resolve the owning resort through the declared owner
	var resortID string
	switch domain.AmenityOwnerKind(req.OwnerKind) {
	case domain.AmenityOwnerResort:
		resort, err := h.catalog.GetResort(ctx, req.OwnerID)
		if err != nil {
			respondError(c, err)
			return
		}
		resortID = resort.ID
	case domain.AmenityOwnerRoomType:
		roomType, err := h.catalog.GetRoomType(ctx, req.OwnerID)
		if err != nil {
			respondError(c, err)
			return
		}
		resortID = roomType.ResortID
	}

	now := time.Now().UTC()
	amenity := &domain.Amenity{
		ID:        uuid.New().String(),
		Name:      req.Name,
		OwnerKind: domain.AmenityOwnerKind(req.OwnerKind),
		OwnerID:   req.OwnerID,
		ResortID:  resortID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, amenity); err != nil {
		respondError(c, err)
		return
	}
	if actor.IsResortManager() && !actor.Manages(amenity.ResortID) {
		respondError(c, domain.ErrForbidden)
		return
	}

	if err := h.catalog.CreateAmenity(ctx, amenity); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, amenity)
}

// DeleteAmenity handles DELETE /admin/amenities/:id
func (h *AdminCatalogHandler) DeleteAmenity(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_amenity")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	amenity, err := h.catalog.GetAmenity(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, amenity); err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteAmenity(ctx, amenity.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": amenity.ID})
}

// ---- bookings (staff view) ----

// ListResortBookings handles GET /admin/resorts/:id/bookings
func (h *AdminCatalogHandler) ListResortBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list_resort_bookings")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	resort, err := h.catalog.GetResort(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionView, resort); err != nil {
		respondError(c, err)
		return
	}

	page, pageSize := pageParams(c)
	bookings, err := h.bookings.ListByResort(ctx, resort.ID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]*dto.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, dto.FromBooking(b))
	}
	response.SuccessWithMeta(c, out, dto.PageMeta{Page: page, PageSize: pageSize, Count: len(out)})
}

// CompleteBooking handles POST /admin/bookings/:id/complete
func (h *AdminCatalogHandler) CompleteBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.complete_booking")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	booking, err := h.bookings.GetBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionUpdate, booking); err != nil {
		respondError(c, err)
		return
	}

	booking, err = h.bookings.CompleteBooking(ctx, booking.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromBooking(booking))
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
