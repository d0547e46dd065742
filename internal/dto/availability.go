package dto

import (
	"time"
)

// Sort orders accepted by availability search
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
	SortNameAsc    = "name_asc"
)

// SearchRequest is the query payload for availability search
type SearchRequest struct {
	CheckIn    string  `form:"check_in" json:"check_in" binding:"required"`
	CheckOut   string  `form:"check_out" json:"check_out" binding:"required"`
	Adults     int     `form:"adults" json:"adults" binding:"required"`
	Children   int     `form:"children" json:"children"`
	ResortID   string  `form:"resort_id" json:"resort_id"`
	RoomTypeID string  `form:"room_type_id" json:"room_type_id"`
	AmenityID  string  `form:"amenity_id" json:"amenity_id"`
	MinPrice   float64 `form:"min_price" json:"min_price"`
	MaxPrice   float64 `form:"max_price" json:"max_price"`
	MinStars   int     `form:"min_stars" json:"min_stars"`
	SortBy     string  `form:"sort_by" json:"sort_by"`
	Page       int     `form:"page" json:"page"`
	PageSize   int     `form:"page_size" json:"page_size"`
}

// Validate checks field-level constraints and returns the parsed stay dates
func (r *SearchRequest) Validate() (checkIn, checkOut time.Time, fields map[string]string) {
	fields = map[string]string{}

	var err error
	checkIn, err = time.Parse(DateLayout, r.CheckIn)
	if err != nil {
		fields["check_in"] = "must be a date in YYYY-MM-DD format"
	}
	checkOut, err = time.Parse(DateLayout, r.CheckOut)
	if err != nil {
		fields["check_out"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) == 0 && !checkIn.Before(checkOut) {
		fields["check_out"] = "must be after check_in"
	}
	if r.Adults < 1 {
		fields["adults"] = "must be at least 1"
	}
	if r.Children < 0 {
		fields["children"] = "cannot be negative"
	}
	if r.MinPrice < 0 || r.MaxPrice < 0 {
		fields["min_price"] = "price bounds cannot be negative"
	}
	if r.MaxPrice > 0 && r.MinPrice > r.MaxPrice {
		fields["max_price"] = "must be greater than min_price"
	}
	switch r.SortBy {
	case "", SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNameAsc:
	default:
		fields["sort_by"] = "must be one of price_asc, price_desc, rating_desc, name_asc"
	}
	if len(fields) == 0 {
		return checkIn, checkOut, nil
	}
	return checkIn, checkOut, fields
}

// RoomTypeResult is one bookable room type/rate plan pairing in a search hit
type RoomTypeResult struct {
	RoomTypeID   string  `json:"room_type_id"`
	RoomTypeName string  `json:"room_type_name"`
	RatePlanID   string  `json:"rate_plan_id"`
	RatePlanName string  `json:"rate_plan_name"`
	MaxOccupancy int     `json:"max_occupancy"`
	FreeUnits    int     `json:"free_units"`
	TotalPrice   float64 `json:"total_price"`
}

// ResortResult is one resort in the availability search response
type ResortResult struct {
	ResortID   string           `json:"resort_id"`
	ResortName string           `json:"resort_name"`
	Location   string           `json:"location"`
	StarRating int              `json:"star_rating"`
	RoomTypes  []RoomTypeResult `json:"room_types"`
	// LowestPrice is the cheapest total stay price across room types,
	// used for price ordering.
	LowestPrice float64 `json:"lowest_price"`
}

// SearchResponse is the availability search result page
type SearchResponse struct {
	Results  []ResortResult `json:"results"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
}
