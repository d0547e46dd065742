package domain

import "errors"

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvalidStatus    = errors.New("invalid booking status transition")
	ErrAlreadyConfirmed = errors.New("booking already confirmed")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrAlreadyCompleted = errors.New("booking already completed")

	// Inventory errors
	ErrInventoryUnavailable = errors.New("no inventory available for the requested range")

	// Pricing errors
	ErrNoApplicableRate = errors.New("no applicable rate for one or more nights")

	// Authorization errors
	ErrForbidden = errors.New("actor is not permitted to perform this action")

	// Validation errors
	ErrInvalidDateRange  = errors.New("check-out must be after check-in")
	ErrInvalidOccupancy  = errors.New("at least one adult is required and children cannot be negative")
	ErrInvalidUnits      = errors.New("units must be greater than zero")
	ErrInvalidGuestInfo  = errors.New("guest name and email are required")
	ErrInvalidBookingID  = errors.New("invalid booking id")
	ErrInvalidReference  = errors.New("invalid booking reference")
	ErrOccupancyExceeded = errors.New("party size exceeds room type capacity")

	// Not-found errors for referenced entities
	ErrResortNotFound       = errors.New("resort not found")
	ErrRoomTypeNotFound     = errors.New("room type not found")
	ErrRatePlanNotFound     = errors.New("rate plan not found")
	ErrSeasonalRateNotFound = errors.New("seasonal rate not found")
	ErrAmenityNotFound      = errors.New("amenity not found")
	ErrActorNotFound        = errors.New("actor not found")
	ErrGuestNotFound        = errors.New("guest profile not found")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrResortNotFound) ||
		errors.Is(err, ErrRoomTypeNotFound) ||
		errors.Is(err, ErrRatePlanNotFound) ||
		errors.Is(err, ErrSeasonalRateNotFound) ||
		errors.Is(err, ErrAmenityNotFound) ||
		errors.Is(err, ErrActorNotFound) ||
		errors.Is(err, ErrGuestNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidOccupancy) ||
		errors.Is(err, ErrInvalidUnits) ||
		errors.Is(err, ErrInvalidGuestInfo) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrOccupancyExceeded)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInventoryUnavailable) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrAlreadyCompleted)
}

// IsAuthorizationError checks if the error is an authorization rejection
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrForbidden)
}
