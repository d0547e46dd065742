package domain

import (
	"strings"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// Booking is a guest's stay reservation. It exclusively owns its
// InventoryReservation rows for its lifetime.
type Booking struct {
	ID          string        `json:"id"`
	Reference   string        `json:"reference"`
	ResortID    string        `json:"resort_id"`
	RoomTypeID  string        `json:"room_type_id"`
	RatePlanID  string        `json:"rate_plan_id"`
	GuestName   string        `json:"guest_name"`
	GuestEmail  string        `json:"guest_email"`
	GuestPhone  string        `json:"guest_phone,omitempty"`
	CheckIn     time.Time     `json:"check_in"`
	CheckOut    time.Time     `json:"check_out"`
	Adults      int           `json:"adults"`
	Children    int           `json:"children"`
	Units       int           `json:"units"`
	Status      BookingStatus `json:"status"`
	TotalPrice  float64       `json:"total_price"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ResourceKind implements Resource
func (b *Booking) ResourceKind() ResourceKind {
	return KindBooking
}

// OwningResortID implements ResortScoped
func (b *Booking) OwningResortID() (string, bool) {
	return b.ResortID, b.ResortID != ""
}

// Validate validates booking fields against the stay invariants
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrInvalidBookingID
	}
	if !b.CheckIn.Before(b.CheckOut) {
		return ErrInvalidDateRange
	}
	if b.Adults < 1 || b.Children < 0 {
		return ErrInvalidOccupancy
	}
	if b.Units <= 0 {
		return ErrInvalidUnits
	}
	if strings.TrimSpace(b.GuestName) == "" || strings.TrimSpace(b.GuestEmail) == "" {
		return ErrInvalidGuestInfo
	}
	if !b.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// NightCount returns the number of nights in the stay
func (b *Booking) NightCount() int {
	return len(NightsBetween(b.CheckIn, b.CheckOut))
}

// IsPending checks if the booking is in pending status
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// IsConfirmed checks if the booking is in confirmed status
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// IsCancelled checks if the booking is in cancelled status
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// CanConfirm checks if the booking can transition to confirmed
func (b *Booking) CanConfirm() bool {
	return b.Status == BookingStatusPending
}

// CanCancel checks if the booking can transition to cancelled
func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// CanComplete checks if the booking can transition to completed
func (b *Booking) CanComplete() bool {
	return b.Status == BookingStatusConfirmed
}

// Confirm marks the booking as confirmed
func (b *Booking) Confirm() error {
	if !b.CanConfirm() {
		switch b.Status {
		case BookingStatusConfirmed:
			return ErrAlreadyConfirmed
		case BookingStatusCancelled:
			return ErrAlreadyCancelled
		case BookingStatusCompleted:
			return ErrAlreadyCompleted
		}
		return ErrInvalidStatus
	}
	now := time.Now()
	b.Status = BookingStatusConfirmed
	b.ConfirmedAt = &now
	b.UpdatedAt = now
	return nil
}

// Cancel marks the booking as cancelled
func (b *Booking) Cancel() error {
	if !b.CanCancel() {
		switch b.Status {
		case BookingStatusCancelled:
			return ErrAlreadyCancelled
		case BookingStatusCompleted:
			return ErrAlreadyCompleted
		}
		return ErrInvalidStatus
	}
	now := time.Now()
	b.Status = BookingStatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// Complete marks the booking as completed
func (b *Booking) Complete() error {
	if !b.CanComplete() {
		switch b.Status {
		case BookingStatusCompleted:
			return ErrAlreadyCompleted
		case BookingStatusCancelled:
			return ErrAlreadyCancelled
		}
		return ErrInvalidStatus
	}
	now := time.Now()
	b.Status = BookingStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	return nil
}
