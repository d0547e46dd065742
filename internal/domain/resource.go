package domain

// ResourceKind tags a governed record type for policy lookup
type ResourceKind string

const (
	KindResort            ResourceKind = "resort"
	KindRoomType          ResourceKind = "room_type"
	KindRatePlan          ResourceKind = "rate_plan"
	KindSeasonalRate      ResourceKind = "seasonal_rate"
	KindAmenity           ResourceKind = "amenity"
	KindBooking           ResourceKind = "booking"
	KindUser              ResourceKind = "user"
	KindManagerAssignment ResourceKind = "manager_assignment"
	KindGuestProfile      ResourceKind = "guest_profile"
)

// Resource is any record governed by the access control engine
type Resource interface {
	ResourceKind() ResourceKind
}

// ResortScoped is implemented by resources that can name the resort they
// belong to. The engine's fallback ownership predicate uses it when a kind
// has no dedicated policy.
type ResortScoped interface {
	// OwningResortID returns the resort the resource belongs to, false when
	// the resource is not attached to any resort.
	OwningResortID() (string, bool)
}
