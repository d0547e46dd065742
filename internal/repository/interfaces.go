package repository

import (
	"context"
	"time"

	"github.com/resortstay/resort-booking/internal/domain"
)

// BookingRepository persists bookings and their inventory reservations
type BookingRepository interface {
	// CreateWithReservation inserts the booking in pending status and its
	// per-night reservation rows in a single transaction, conditionally
	// incrementing the inventory counters. Returns ErrInventoryUnavailable
	// when any night lacks capacity; nothing is written in that case.
	CreateWithReservation(ctx context.Context, booking *domain.Booking) error

	// EnsureReservation idempotently materializes reservation rows for an
	// existing booking and returns them. Rows already present are returned
	// as-is without touching the counters again.
	EnsureReservation(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error)

	// CancelAndRelease marks the booking cancelled and releases all its
	// reservation rows in one transaction. The status flip is guarded: it
	// only succeeds when the current status is one of from (pending and
	// confirmed when empty), so a racing cancellation or an expiry sweep
	// against a just-confirmed booking stops without touching the counters.
	// Returns the precise already-cancelled/completed sentinel on a guard
	// miss.
	CancelAndRelease(ctx context.Context, bookingID string, from ...domain.BookingStatus) error

	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking) error
	ListByResort(ctx context.Context, resortID string, limit, offset int) ([]*domain.Booking, error)
	ReservationsForBooking(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error)

	// ExpiredPending lists pending bookings created before the cutoff, for
	// the expiry worker.
	ExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error)
}

// InventoryRepository reads the per-night inventory counters
type InventoryRepository interface {
	// FreeUnits returns, per night of [from, to), the free units for the
	// room type. Nights with no counter row report the room type's full
	// pool.
	FreeUnits(ctx context.Context, roomTypeID string, from, to time.Time) ([]domain.InventoryNight, error)

	// MinFreeUnits returns the smallest per-night free unit count over
	// [from, to).
	MinFreeUnits(ctx context.Context, roomTypeID string, from, to time.Time) (int, error)
}

// RateRepository persists seasonal rate calendar entries
type RateRepository interface {
	Create(ctx context.Context, rate *domain.SeasonalRate) error
	Update(ctx context.Context, rate *domain.SeasonalRate) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.SeasonalRate, error)

	// ActiveForRange lists active entries of a rate plan overlapping
	// [from, to), newest created first. The ordering is the pricing
	// tie-break: when several entries cover the same night the first match
	// wins.
	ActiveForRange(ctx context.Context, ratePlanID string, from, to time.Time) ([]*domain.SeasonalRate, error)
}

// SearchRow is one joined room-type/rate-plan candidate for availability
// search, before the per-night availability and pricing pass.
type SearchRow struct {
	Resort   domain.Resort
	RoomType domain.RoomType
	RatePlan domain.RatePlan
}

// CatalogRepository persists resorts, room types, rate plans and amenities
type CatalogRepository interface {
	CreateResort(ctx context.Context, resort *domain.Resort) error
	UpdateResort(ctx context.Context, resort *domain.Resort) error
	DeleteResort(ctx context.Context, id string) error
	GetResort(ctx context.Context, id string) (*domain.Resort, error)
	ListResorts(ctx context.Context, limit, offset int) ([]*domain.Resort, error)

	CreateRoomType(ctx context.Context, roomType *domain.RoomType) error
	UpdateRoomType(ctx context.Context, roomType *domain.RoomType) error
	DeleteRoomType(ctx context.Context, id string) error
	GetRoomType(ctx context.Context, id string) (*domain.RoomType, error)

	CreateRatePlan(ctx context.Context, plan *domain.RatePlan) error
	UpdateRatePlan(ctx context.Context, plan *domain.RatePlan) error
	DeleteRatePlan(ctx context.Context, id string) error
	GetRatePlan(ctx context.Context, id string) (*domain.RatePlan, error)

	CreateAmenity(ctx context.Context, amenity *domain.Amenity) error
	DeleteAmenity(ctx context.Context, id string) error
	GetAmenity(ctx context.Context, id string) (*domain.Amenity, error)

	// SearchCandidates lists active resort/room-type/rate-plan combinations
	// matching the static filters (resort, room type, amenity, capacity,
	// star rating). Per-night availability and pricing are applied by the
	// caller.
	SearchCandidates(ctx context.Context, filter SearchFilter) ([]SearchRow, error)
}

// SearchFilter is the static part of an availability search
type SearchFilter struct {
	ResortID    string
	RoomTypeID  string
	AmenityID   string
	MinCapacity int
	MinStars    int
}

// ActorRepository persists actors and their managed-resort assignments
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	Update(ctx context.Context, actor *domain.Actor) error
	Delete(ctx context.Context, id string) error

	// GetByID loads the actor with their managed resort set
	GetByID(ctx context.Context, id string) (*domain.Actor, error)

	// GetByAPIKeyHash resolves an integration API key hash to its actor
	GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Actor, error)

	List(ctx context.Context, limit, offset int) ([]*domain.Actor, error)

	AssignResort(ctx context.Context, assignment *domain.ManagerAssignment) error
	UnassignResort(ctx context.Context, userID, resortID string) error
	AssignmentsForUser(ctx context.Context, userID string) ([]*domain.ManagerAssignment, error)
}

// GuestRepository persists guest profiles
type GuestRepository interface {
	Upsert(ctx context.Context, guest *domain.GuestProfile) error
	GetByID(ctx context.Context, id string) (*domain.GuestProfile, error)
	GetByEmail(ctx context.Context, email string) (*domain.GuestProfile, error)
}
