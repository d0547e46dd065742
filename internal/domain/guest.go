package domain

import "time"

// GuestProfile is the contact record for a returning guest
type GuestProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResourceKind implements Resource
func (g *GuestProfile) ResourceKind() ResourceKind {
	return KindGuestProfile
}
