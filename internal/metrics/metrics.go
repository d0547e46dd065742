package metrics

import (
	"context"

	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// BookingMetrics holds the counters emitted by the booking workflow
type BookingMetrics struct {
	BookingsCreated    *telemetry.Counter
	BookingsConfirmed  *telemetry.Counter
	BookingsCancelled  *telemetry.Counter
	BookingsExpired    *telemetry.Counter
	InventoryConflicts *telemetry.Counter
	SearchRequests     *telemetry.Counter
	SearchCacheHits    *telemetry.Counter
}

// NewBookingMetrics registers the booking workflow counters
func NewBookingMetrics() (*BookingMetrics, error) {
	created, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "bookings_created_total",
		Description: "Total bookings created",
	})
	if err != nil {
		return nil, err
	}
	confirmed, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "bookings_confirmed_total",
		Description: "Total bookings confirmed",
	})
	if err != nil {
		return nil, err
	}
	cancelled, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "bookings_cancelled_total",
		Description: "Total bookings cancelled",
	})
	if err != nil {
		return nil, err
	}
	expired, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "bookings_expired_total",
		Description: "Total pending bookings expired by the reaper",
	})
	if err != nil {
		return nil, err
	}
	conflicts, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "inventory_conflicts_total",
		Description: "Total booking attempts rejected for lack of inventory",
	})
	if err != nil {
		return nil, err
	}
	searches, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "availability_searches_total",
		Description: "Total availability search requests",
	})
	if err != nil {
		return nil, err
	}
	cacheHits, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "availability_search_cache_hits_total",
		Description: "Availability searches served from cache",
	})
	if err != nil {
		return nil, err
	}

	return &BookingMetrics{
		BookingsCreated:    created,
		BookingsConfirmed:  confirmed,
		BookingsCancelled:  cancelled,
		BookingsExpired:    expired,
		InventoryConflicts: conflicts,
		SearchRequests:     searches,
		SearchCacheHits:    cacheHits,
	}, nil
}

// Inc bumps a counter if both the metrics set and the counter exist. Keeps
// call sites nil-safe when metrics are disabled in tests.
func (m *BookingMetrics) Inc(ctx context.Context, c *telemetry.Counter) {
	if m == nil || c == nil {
		return
	}
	c.Inc(ctx)
}
