package dto

import (
	"strings"
	"time"
)

// ResortRequest is the payload for creating or updating a resort
type ResortRequest struct {
	Name       string  `json:"name" binding:"required"`
	Location   string  `json:"location"`
	StarRating int     `json:"star_rating"`
	TaxRate    float64 `json:"tax_rate"`
	Active     *bool   `json:"active"`
}

// Validate checks field-level constraints
func (r *ResortRequest) Validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "is required"
	}
	if r.StarRating < 0 || r.StarRating > 5 {
		fields["star_rating"] = "must be between 0 and 5"
	}
	if r.TaxRate < 0 || r.TaxRate >= 1 {
		fields["tax_rate"] = "must be a fraction between 0 and 1"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// RoomTypeRequest is the payload for creating or updating a room type
type RoomTypeRequest struct {
	ResortID     string `json:"resort_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	MaxOccupancy int    `json:"max_occupancy" binding:"required"`
	TotalUnits   int    `json:"total_units" binding:"required"`
	Active       *bool  `json:"active"`
}

// Validate checks field-level constraints
func (r *RoomTypeRequest) Validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.ResortID) == "" {
		fields["resort_id"] = "is required"
	}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "is required"
	}
	if r.MaxOccupancy < 1 {
		fields["max_occupancy"] = "must be at least 1"
	}
	if r.TotalUnits < 0 {
		fields["total_units"] = "cannot be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// RatePlanRequest is the payload for creating or updating a rate plan
type RatePlanRequest struct {
	RoomTypeID      string  `json:"room_type_id" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	DiscountPercent float64 `json:"discount_percent"`
	Active          *bool   `json:"active"`
}

// Validate checks field-level constraints
func (r *RatePlanRequest) Validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.RoomTypeID) == "" {
		fields["room_type_id"] = "is required"
	}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "is required"
	}
	if r.DiscountPercent < 0 || r.DiscountPercent > 100 {
		fields["discount_percent"] = "must be between 0 and 100"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// SeasonalRateRequest is the payload for creating or updating a calendar entry
type SeasonalRateRequest struct {
	RatePlanID   string  `json:"rate_plan_id" binding:"required"`
	NightlyPrice float64 `json:"nightly_price" binding:"required"`
	ValidFrom    string  `json:"valid_from" binding:"required"`
	ValidTo      string  `json:"valid_to" binding:"required"`
	Active       *bool   `json:"active"`
}

// Validate checks field-level constraints and returns the parsed range
func (r *SeasonalRateRequest) Validate() (from, to time.Time, fields map[string]string) {
	fields = map[string]string{}
	if strings.TrimSpace(r.RatePlanID) == "" {
		fields["rate_plan_id"] = "is required"
	}
	if r.NightlyPrice <= 0 {
		fields["nightly_price"] = "must be greater than zero"
	}
	var err error
	from, err = time.Parse(DateLayout, r.ValidFrom)
	if err != nil {
		fields["valid_from"] = "must be a date in YYYY-MM-DD format"
	}
	to, err = time.Parse(DateLayout, r.ValidTo)
	if err != nil {
		fields["valid_to"] = "must be a date in YYYY-MM-DD format"
	}
	if _, okFrom := fields["valid_from"]; !okFrom {
		if _, okTo := fields["valid_to"]; !okTo && !from.Before(to) {
			fields["valid_to"] = "must be after valid_from"
		}
	}
	if len(fields) == 0 {
		return from, to, nil
	}
	return from, to, fields
}

// AmenityRequest is the payload for creating or updating an amenity
type AmenityRequest struct {
	Name      string `json:"name" binding:"required"`
	OwnerKind string `json:"owner_kind" binding:"required"`
	OwnerID   string `json:"owner_id" binding:"required"`
}

// Validate checks field-level constraints
func (r *AmenityRequest) Validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "is required"
	}
	switch r.OwnerKind {
	case "resort", "room_type":
	default:
		fields["owner_kind"] = "must be resort or room_type"
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		fields["owner_id"] = "is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
