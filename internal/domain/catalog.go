package domain

import "time"

// Resort is a bookable property
type Resort struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	StarRating int       `json:"star_rating"`
	TaxRate    float64   `json:"tax_rate"` // fraction, e.g. 0.12
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ResourceKind implements Resource
func (r *Resort) ResourceKind() ResourceKind {
	return KindResort
}

// OwningResortID implements ResortScoped; a resort owns itself
func (r *Resort) OwningResortID() (string, bool) {
	return r.ID, r.ID != ""
}

// RoomType is a bookable room category within a resort. TotalUnits is the
// inventory pool size per night.
type RoomType struct {
	ID           string    `json:"id"`
	ResortID     string    `json:"resort_id"`
	Name         string    `json:"name"`
	MaxOccupancy int       `json:"max_occupancy"`
	TotalUnits   int       `json:"total_units"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceKind implements Resource
func (rt *RoomType) ResourceKind() ResourceKind {
	return KindRoomType
}

// OwningResortID implements ResortScoped
func (rt *RoomType) OwningResortID() (string, bool) {
	return rt.ResortID, rt.ResortID != ""
}

// RatePlan is a sellable tariff for a room type. ResortID is denormalized
// from the owning chain so policy checks never need a lookup.
type RatePlan struct {
	ID              string    `json:"id"`
	RoomTypeID      string    `json:"room_type_id"`
	ResortID        string    `json:"resort_id"`
	Name            string    `json:"name"`
	DiscountPercent float64   `json:"discount_percent"` // promotion applied to the base price
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ResourceKind implements Resource
func (rp *RatePlan) ResourceKind() ResourceKind {
	return KindRatePlan
}

// OwningResortID implements ResortScoped
func (rp *RatePlan) OwningResortID() (string, bool) {
	return rp.ResortID, rp.ResortID != ""
}

// AmenityOwnerKind tags which entity an amenity is attached to
type AmenityOwnerKind string

const (
	AmenityOwnerResort   AmenityOwnerKind = "resort"
	AmenityOwnerRoomType AmenityOwnerKind = "room_type"
)

// Amenity is a feature attached to either a resort or a room type
type Amenity struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	OwnerKind AmenityOwnerKind `json:"owner_kind"`
	OwnerID   string           `json:"owner_id"`
	// ResortID is the resort the owner ultimately belongs to; equal to
	// OwnerID when OwnerKind is resort.
	ResortID  string    `json:"resort_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceKind implements Resource
func (a *Amenity) ResourceKind() ResourceKind {
	return KindAmenity
}

// OwningResortID implements ResortScoped. An amenity with an unknown owner
// kind is not reachable from any resort and is denied to managers.
func (a *Amenity) OwningResortID() (string, bool) {
	switch a.OwnerKind {
	case AmenityOwnerResort, AmenityOwnerRoomType:
		return a.ResortID, a.ResortID != ""
	}
	return "", false
}
