package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// PostgresInventoryRepository reads per-night inventory counters. Nights
// without a counter row report the room type's full pool.
type PostgresInventoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository
func NewPostgresInventoryRepository(pool *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{pool: pool}
}

// freeUnitsQuery expands the stay into one row per night and left-joins the
// counter table, falling back to the room type pool for untouched nights.
const freeUnitsQuery = `
	SELECT rt.id, n.night::date, rt.total_units, COALESCE(inv.reserved_units, 0)
	FROM room_types rt
	CROSS JOIN generate_series($2::date, $3::date - INTERVAL '1 day', INTERVAL '1 day') AS n(night)
	LEFT JOIN room_type_inventory inv
		ON inv.room_type_id = rt.id AND inv.night = n.night::date
	WHERE rt.id = $1
	ORDER BY n.night
`

// FreeUnits returns the per-night inventory state of [from, to)
func (r *PostgresInventoryRepository) FreeUnits(ctx context.Context, roomTypeID string, from, to time.Time) ([]domain.InventoryNight, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.free_units")
	defer span.End()

	span.SetAttributes(attribute.String("room_type_id", roomTypeID))

	rows, err := r.pool.Query(ctx, freeUnitsQuery, roomTypeID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var nights []domain.InventoryNight
	for rows.Next() {
		var n domain.InventoryNight
		if err := rows.Scan(&n.RoomTypeID, &n.Night, &n.TotalUnits, &n.ReservedUnits); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan inventory night: %w", err)
		}
		nights = append(nights, n)
	}
	if err := rows.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	if len(nights) == 0 {
		span.SetStatus(codes.Error, "room type not found")
		return nil, domain.ErrRoomTypeNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nights, nil
}

// MinFreeUnits returns the tightest per-night free unit count over [from, to)
func (r *PostgresInventoryRepository) MinFreeUnits(ctx context.Context, roomTypeID string, from, to time.Time) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.min_free_units")
	defer span.End()

	span.SetAttributes(attribute.String("room_type_id", roomTypeID))

	// MIN over zero joined rows yields NULL, which means the room type
	// does not exist.
	var min *int
	err := r.pool.QueryRow(ctx, `
		SELECT MIN(rt.total_units - COALESCE(inv.reserved_units, 0))
		FROM room_types rt
		CROSS JOIN generate_series($2::date, $3::date - INTERVAL '1 day', INTERVAL '1 day') AS n(night)
		LEFT JOIN room_type_inventory inv
			ON inv.room_type_id = rt.id AND inv.night = n.night::date
		WHERE rt.id = $1`,
		roomTypeID, from, to,
	).Scan(&min)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "room type not found")
			return 0, domain.ErrRoomTypeNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to query free units: %w", err)
	}
	if min == nil {
		span.SetStatus(codes.Error, "room type not found")
		return 0, domain.ErrRoomTypeNotFound
	}

	span.SetAttributes(attribute.Int("min_free_units", *min))
	span.SetStatus(codes.Ok, "")
	return *min, nil
}
