package handler

import (
	"strings"
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

// AdminUserHandler serves staff user management: users, roles and
// manager-resort assignments.
type AdminUserHandler struct {
	engine  *authz.Engine
	actors  repository.ActorRepository
	catalog repository.CatalogRepository
}

// NewAdminUserHandler creates a new AdminUserHandler
func NewAdminUserHandler(engine *authz.Engine, actors repository.ActorRepository, catalog repository.CatalogRepository) *AdminUserHandler {
	return &AdminUserHandler{
		engine:  engine,
		actors:  actors,
		catalog: catalog,
	}
}

// userRequest is the payload for creating or updating a user
type userRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

func (r *userRequest) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Email) == "" || !strings.Contains(r.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "is required"
	}
	if !domain.Role(r.Role).IsValid() {
		fields["role"] = "must be one of admin, resort_manager, guest"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateUser handles POST /admin/users
func (h *AdminUserHandler) CreateUser(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_user")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &userRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}

	now := time.Now().UTC()
	user := &domain.Actor{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Name:      req.Name,
		Role:      domain.Role(req.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, user); err != nil {
		respondError(c, err)
		return
	}

	if err := h.actors.Create(ctx, user); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, user)
}

// ListUsers handles GET /admin/users
func (h *AdminUserHandler) ListUsers(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list_users")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionViewAny, &domain.Actor{}); err != nil {
		respondError(c, err)
		return
	}

	page, pageSize := pageParams(c)
	users, err := h.actors.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMeta(c, users, dto.PageMeta{Page: page, PageSize: pageSize, Count: len(users)})
}

// GetUser handles GET /admin/users/:id. Non-admins may only see themselves.
func (h *AdminUserHandler) GetUser(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.get_user")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	user, err := h.actors.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionView, user); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUser handles PUT /admin/users/:id
func (h *AdminUserHandler) UpdateUser(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_user")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	user, err := h.actors.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionUpdate, user); err != nil {
		respondError(c, err)
		return
	}

	req := &userRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if fields := req.validate(); fields != nil {
		response.ValidationFailed(c, "request validation failed", fields)
		return
	}
	// role changes are an admin concern even when a user edits themselves
	if domain.Role(req.Role) != user.Role && !actor.IsAdmin() {
		respondError(c, domain.ErrForbidden)
		return
	}

	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.Name = req.Name
	user.Role = domain.Role(req.Role)
	user.UpdatedAt = time.Now().UTC()

	if err := h.actors.Update(ctx, user); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteUser handles DELETE /admin/users/:id. Admins cannot delete their own
// account; the policy table denies self-deletion outright.
func (h *AdminUserHandler) DeleteUser(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_user")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	user, err := h.actors.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, user); err != nil {
		respondError(c, err)
		return
	}
	if err := h.actors.Delete(ctx, user.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": user.ID})
}

// assignmentRequest is the payload for granting a manager a resort
type assignmentRequest struct {
	ResortID string `json:"resort_id" binding:"required"`
}

// AssignResort handles POST /admin/users/:id/resorts
func (h *AdminUserHandler) AssignResort(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.assign_resort")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	req := &assignmentRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "resort_id is required")
		return
	}

	user, err := h.actors.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if user.Role != domain.RoleResortManager {
		response.ValidationFailed(c, "request validation failed", map[string]string{
			"user_id": "only resort managers can be assigned resorts",
		})
		return
	}
	if _, err := h.catalog.GetResort(ctx, req.ResortID); err != nil {
		respondError(c, err)
		return
	}

	assignment := &domain.ManagerAssignment{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ResortID:  req.ResortID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.engine.Authorize(actor, authz.ActionCreate, assignment); err != nil {
		respondError(c, err)
		return
	}

	if err := h.actors.AssignResort(ctx, assignment); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, assignment)
}

// UnassignResort handles DELETE /admin/users/:id/resorts/:resortID
func (h *AdminUserHandler) UnassignResort(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.unassign_resort")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}

	assignment := &domain.ManagerAssignment{
		UserID:   c.Param("id"),
		ResortID: c.Param("resortID"),
	}
	if err := h.engine.Authorize(actor, authz.ActionDelete, assignment); err != nil {
		respondError(c, err)
		return
	}

	if err := h.actors.UnassignResort(ctx, assignment.UserID, assignment.ResortID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user_id":   assignment.UserID,
		"resort_id": assignment.ResortID,
	})
}

// ListAssignments handles GET /admin/users/:id/resorts
func (h *AdminUserHandler) ListAssignments(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list_assignments")
	defer span.End()

	actor, ok := loadActor(c, h.actors)
	if !ok {
		return
	}
	user, err := h.actors.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.engine.Authorize(actor, authz.ActionView, user); err != nil {
		respondError(c, err)
		return
	}

	assignments, err := h.actors.AssignmentsForUser(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, assignments)
}
