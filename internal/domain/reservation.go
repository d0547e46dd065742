package domain

import "time"

// InventoryReservation is a one-night hold of room-type inventory tied to a
// booking. A booking holds one row per night of its stay; all rows are
// released together when the booking is cancelled.
type InventoryReservation struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	RoomTypeID string    `json:"room_type_id"`
	Night      time.Time `json:"night"`
	Units      int       `json:"units"`
	CreatedAt  time.Time `json:"created_at"`
}

// InventoryNight is the per-night counter row for a room type's pool.
// Invariant: 0 <= ReservedUnits <= TotalUnits.
type InventoryNight struct {
	RoomTypeID    string    `json:"room_type_id"`
	Night         time.Time `json:"night"`
	TotalUnits    int       `json:"total_units"`
	ReservedUnits int       `json:"reserved_units"`
}

// FreeUnits returns the remaining capacity for the night
func (n *InventoryNight) FreeUnits() int {
	free := n.TotalUnits - n.ReservedUnits
	if free < 0 {
		return 0
	}
	return free
}
