package dto

import (
	"strings"
	"time"

	"github.com/resortstay/resort-booking/internal/domain"
)

// DateLayout is the wire format for stay dates
const DateLayout = "2006-01-02"

// CreateBookingRequest is the payload for creating a booking
type CreateBookingRequest struct {
	ResortID   string `json:"resort_id" binding:"required"`
	RoomTypeID string `json:"room_type_id" binding:"required"`
	RatePlanID string `json:"rate_plan_id" binding:"required"`
	GuestName  string `json:"guest_name" binding:"required"`
	GuestEmail string `json:"guest_email" binding:"required"`
	GuestPhone string `json:"guest_phone"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	Adults     int    `json:"adults" binding:"required"`
	Children   int    `json:"children"`
	Units      int    `json:"units"`
}

// Validate checks field-level constraints and returns the parsed stay dates.
// The fields map carries one message per offending field for 422 responses.
func (r *CreateBookingRequest) Validate() (checkIn, checkOut time.Time, fields map[string]string) {
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
	if r.Units < 0 {
		fields["units"] = "cannot be negative"
	}
	if strings.TrimSpace(r.GuestName) == "" {
		fields["guest_name"] = "is required"
	}
	if strings.TrimSpace(r.GuestEmail) == "" || !strings.Contains(r.GuestEmail, "@") {
		fields["guest_email"] = "must be a valid email address"
	}
	if len(fields) == 0 {
		return checkIn, checkOut, nil
	}
	return checkIn, checkOut, fields
}

// BookingResponse is the wire representation of a booking
type BookingResponse struct {
	ID          string     `json:"id"`
	Reference   string     `json:"reference"`
	ResortID    string     `json:"resort_id"`
	RoomTypeID  string     `json:"room_type_id"`
	RatePlanID  string     `json:"rate_plan_id"`
	GuestName   string     `json:"guest_name"`
	GuestEmail  string     `json:"guest_email"`
	CheckIn     string     `json:"check_in"`
	CheckOut    string     `json:"check_out"`
	Adults      int        `json:"adults"`
	Children    int        `json:"children"`
	Units       int        `json:"units"`
	Status      string     `json:"status"`
	TotalPrice  float64    `json:"total_price"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromBooking converts a domain booking to its wire representation
func FromBooking(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:          b.ID,
		Reference:   b.Reference,
		ResortID:    b.ResortID,
		RoomTypeID:  b.RoomTypeID,
		RatePlanID:  b.RatePlanID,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		CheckIn:     b.CheckIn.Format(DateLayout),
		CheckOut:    b.CheckOut.Format(DateLayout),
		Adults:      b.Adults,
		Children:    b.Children,
		Units:       b.Units,
		Status:      b.Status.String(),
		TotalPrice:  b.TotalPrice,
		ConfirmedAt: b.ConfirmedAt,
		CancelledAt: b.CancelledAt,
		CreatedAt:   b.CreatedAt,
	}
}

// QuoteResponse is the wire representation of a price quote
type QuoteResponse struct {
	RatePlanID string  `json:"rate_plan_id"`
	NightCount int     `json:"night_count"`
	BasePrice  float64 `json:"base_price"`
	Discount   float64 `json:"discount"`
	Tax        float64 `json:"tax"`
	Total      float64 `json:"total"`
}

// FromQuote converts a domain quote to its wire representation
func FromQuote(q *domain.Quote) *QuoteResponse {
	return &QuoteResponse{
		RatePlanID: q.RatePlanID,
		NightCount: len(q.Nights),
		BasePrice:  q.BasePrice,
		Discount:   q.Discount,
		Tax:        q.Tax,
		Total:      q.Total,
	}
}

// PageMeta carries pagination metadata alongside list responses
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Count    int `json:"count"`
}
