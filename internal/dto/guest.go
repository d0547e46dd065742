package dto

import (
	"strings"
	"time"

	"github.com/resortstay/resort-booking/internal/domain"
)

// GuestProfileRequest is the payload for creating or updating a guest profile
type GuestProfileRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality"`
	Notes       string `json:"notes"`
}

// Validate checks field-level constraints
func (r *GuestProfileRequest) Validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(r.Email) == "" || !strings.Contains(r.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// GuestProfileResponse is the wire representation of a guest profile
type GuestProfileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromGuestProfile converts a domain guest profile to its wire representation
func FromGuestProfile(g *domain.GuestProfile) *GuestProfileResponse {
	return &GuestProfileResponse{
		ID:          g.ID,
		Name:        g.Name,
		Email:       g.Email,
		Phone:       g.Phone,
		Nationality: g.Nationality,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
