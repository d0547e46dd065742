package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/pkg/logger"
	"github.com/resortstay/resort-booking/pkg/response"
)

// respondError maps service and domain errors onto the HTTP error envelope.
// Unclassified errors are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var fieldErr *service.FieldError
	if errors.As(err, &fieldErr) {
		response.ValidationFailed(c, "request validation failed", fieldErr.Fields)
		return
	}

	switch {
	case domain.IsValidationError(err):
		response.ValidationFailed(c, err.Error(), nil)
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInventoryUnavailable):
		response.Conflict(c, "INVENTORY_UNAVAILABLE", err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, "CONFLICT", err.Error())
	case domain.IsAuthorizationError(err):
		response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrNoApplicableRate):
		response.ValidationFailed(c, err.Error(), nil)
	default:
		logger.Get().WithContext(c.Request.Context()).Error("request failed", zap.Error(err))
		response.InternalError(c, errors.New("internal server error"))
	}
}
