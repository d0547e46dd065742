package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/resortstay/resort-booking/internal/authz"
	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/pkg/response"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// GuestHandler serves staff access to guest profiles
type GuestHandler struct {
	engine *authz.Engine
	actors repository.ActorRepository
	guests repository.GuestRepository
}

// NewGuestHandler creates a new GuestHandler
func NewGuestHandler(engine *authz.Engine, actors repository.ActorRepository, guests repository.GuestRepository) *GuestHandler {
	return &GuestHandler{
		engine: engine,
		actors: actors,
		guests: guests,
	}
}

// Upsert handles PUT /admin/guests
func (h *GuestHandler) Upsert(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.guest.upsert")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, &domain.GuestProfile{}); err != nil {
		respondError(c, err)
		return
	}

	req := &dto.GuestProfileRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.Validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	now := time.Now().UTC()
	guest := &domain.GuestProfile{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Nationality: req.Nationality,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.guests.Upsert(ctx, guest); err != nil {
		respondError(c, err)
		return
	}

	stored, err := h.guests.GetByEmail(ctx, guest.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromGuestProfile(stored))
}

// Get handles GET /admin/guests/:id
func (h *GuestHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.guest.get")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionView, &domain.GuestProfile{}); err != nil {
		respondError(c, err)
		return
	}

	guest, err := h.guests.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, dto.FromGuestProfile(guest))
}
