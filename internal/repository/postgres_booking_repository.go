package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// PostgresBookingRepository implements BookingRepository using PostgreSQL
// with pgxpool. The no-oversell guarantee lives here: reserving a night is a
// conditional increment of the per-night counter row, so two concurrent
// transactions against the last unit serialize and only one commits.
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// reserveNightQuery seeds the counter row from the room type pool on first
// use and otherwise increments it, in both cases only when capacity remains.
// Zero rows affected means the night is full.
const reserveNightQuery = `
	INSERT INTO room_type_inventory (room_type_id, night, total_units, reserved_units)
	SELECT rt.id, $2, rt.total_units, $3
	FROM room_types rt
	WHERE rt.id = $1 AND rt.total_units >= $3
	ON CONFLICT (room_type_id, night) DO UPDATE
	SET reserved_units = room_type_inventory.reserved_units + EXCLUDED.reserved_units
	WHERE room_type_inventory.reserved_units + EXCLUDED.reserved_units <= room_type_inventory.total_units
`

const releaseNightQuery = `
	UPDATE room_type_inventory
	SET reserved_units = GREATEST(reserved_units - $3, 0)
	WHERE room_type_id = $1 AND night = $2
`

const insertBookingQuery = `
	INSERT INTO bookings (
		id, reference, resort_id, room_type_id, rate_plan_id,
		guest_name, guest_email, guest_phone,
		check_in, check_out, adults, children, units,
		status, total_price, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11, $12, $13,
		$14, $15, $16, $17
	)
`

const insertReservationQuery = `
	INSERT INTO inventory_reservations (id, booking_id, room_type_id, night, units, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (booking_id, night) DO NOTHING
`

const selectBookingColumns = `
	id, reference, resort_id, room_type_id, rate_plan_id,
	guest_name, guest_email, guest_phone,
	check_in, check_out, adults, children, units,
	status, total_price, confirmed_at, cancelled_at, completed_at,
	created_at, updated_at
`

// CreateWithReservation inserts the booking and reserves its nights in one
// transaction. Any night without capacity rolls the whole write back.
func (r *PostgresBookingRepository) CreateWithReservation(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.create_with_reservation")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("room_type_id", booking.RoomTypeID),
		attribute.Int("units", booking.Units),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := reserveNights(ctx, tx, booking); err != nil {
		if errors.Is(err, domain.ErrInventoryUnavailable) {
			span.SetStatus(codes.Error, "inventory unavailable")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	_, err = tx.Exec(ctx, insertBookingQuery,
		booking.ID,
		booking.Reference,
		booking.ResortID,
		booking.RoomTypeID,
		booking.RatePlanID,
		booking.GuestName,
		booking.GuestEmail,
		nullString(booking.GuestPhone),
		booking.CheckIn,
		booking.CheckOut,
		booking.Adults,
		booking.Children,
		booking.Units,
		booking.Status.String(),
		booking.TotalPrice,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := insertReservations(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// reserveNights conditionally increments the counter row for every night of
// the stay. Runs inside the caller's transaction.
func reserveNights(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	for _, night := range domain.NightsBetween(booking.CheckIn, booking.CheckOut) {
		tag, err := tx.Exec(ctx, reserveNightQuery, booking.RoomTypeID, night, booking.Units)
		if err != nil {
			return fmt.Errorf("failed to reserve night %s: %w", night.Format("2006-01-02"), err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInventoryUnavailable
		}
	}
	return nil
}

func insertReservations(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	for _, night := range domain.NightsBetween(booking.CheckIn, booking.CheckOut) {
		_, err := tx.Exec(ctx, insertReservationQuery,
			newReservationID(),
			booking.ID,
			booking.RoomTypeID,
			night,
			booking.Units,
			time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
	}
	return nil
}

// EnsureReservation idempotently materializes reservation rows for a
// booking. The booking row is locked for the duration of the transaction so
// two concurrent calls cannot both observe missing rows and reserve twice.
func (r *PostgresBookingRepository) EnsureReservation(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.ensure_reservation")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	booking := &domain.Booking{ID: bookingID}
	var status string
	err = tx.QueryRow(ctx,
		`SELECT room_type_id, check_in, check_out, units, status FROM bookings WHERE id = $1 FOR UPDATE`,
		bookingID,
	).Scan(&booking.RoomTypeID, &booking.CheckIn, &booking.CheckOut, &booking.Units, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	booking.Status = domain.BookingStatus(status)
	if booking.Status.IsTerminal() {
		span.SetStatus(codes.Error, "terminal status")
		return nil, domain.ErrInvalidStatus
	}

	existing, err := reservationsForBookingTx(ctx, tx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(existing) > 0 {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit reservation: %w", err)
		}
		span.SetStatus(codes.Ok, "")
		return existing, nil
	}

	if err := reserveNights(ctx, tx, booking); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := insertReservations(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return r.ReservationsForBooking(ctx, bookingID)
}

// CancelAndRelease marks the booking cancelled and releases its reserved
// nights in one transaction. The guarded status flip runs first: it takes the
// booking's row lock, so of two racing cancellations only the winner sees an
// active status and releases inventory. The holds are then claimed with a
// DELETE ... RETURNING and only the returned rows are decremented, so the
// counters can never be released twice.
func (r *PostgresBookingRepository) CancelAndRelease(ctx context.Context, bookingID string, from ...domain.BookingStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.cancel_and_release")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	allowed := make([]string, 0, 2)
	if len(from) == 0 {
		from = []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed}
	}
	for _, s := range from {
		allowed = append(allowed, s.String())
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE bookings SET status = $2, cancelled_at = $3, updated_at = $3 WHERE id = $1 AND status = ANY($4)`,
		bookingID, domain.BookingStatusCancelled.String(), time.Now(), allowed,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load booking status: %w", err)
		}
		span.SetStatus(codes.Error, "status conflict")
		return statusConflictError(domain.BookingStatus(current))
	}

	rows, err := tx.Query(ctx,
		`DELETE FROM inventory_reservations WHERE booking_id = $1 RETURNING room_type_id, night, units`,
		bookingID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to claim reservations: %w", err)
	}

	type hold struct {
		roomTypeID string
		night      time.Time
		units      int
	}
	var holds []hold
	for rows.Next() {
		var h hold
		if err := rows.Scan(&h.roomTypeID, &h.night, &h.units); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan reservation: %w", err)
		}
		holds = append(holds, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate reservations: %w", err)
	}

	for _, h := range holds {
		if _, err := tx.Exec(ctx, releaseNightQuery, h.roomTypeID, h.night, h.units); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to release night: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// statusConflictError maps a booking's current status to the precise
// sentinel for a rejected cancellation.
func statusConflictError(status domain.BookingStatus) error {
	switch status {
	case domain.BookingStatusCancelled:
		return domain.ErrAlreadyCancelled
	case domain.BookingStatusCompleted:
		return domain.ErrAlreadyCompleted
	default:
		return domain.ErrInvalidStatus
	}
}

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	booking, err := r.scanBooking(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, selectBookingColumns), id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// GetByReference retrieves a booking by its public reference code
func (r *PostgresBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_reference")
	defer span.End()

	span.SetAttributes(attribute.String("reference", reference))

	booking, err := r.scanBooking(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings WHERE reference = $1`, selectBookingColumns), reference)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// UpdateStatus persists a status transition already applied to the entity
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("status", booking.Status.String()),
	)

	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET status = $2, confirmed_at = $3, cancelled_at = $4, completed_at = $5, updated_at = $6
		WHERE id = $1`,
		booking.ID,
		booking.Status.String(),
		booking.ConfirmedAt,
		booking.CancelledAt,
		booking.CompletedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrBookingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListByResort lists bookings of a resort, newest first
func (r *PostgresBookingRepository) ListByResort(ctx context.Context, resortID string, limit, offset int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_by_resort")
	defer span.End()

	span.SetAttributes(attribute.String("resort_id", resortID))

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings WHERE resort_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, selectBookingColumns),
		resortID, limit, offset,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

const selectReservationsQuery = `
	SELECT id, booking_id, room_type_id, night, units, created_at
	FROM inventory_reservations
	WHERE booking_id = $1
	ORDER BY night
`

// ReservationsForBooking lists the reservation rows held by a booking
func (r *PostgresBookingRepository) ReservationsForBooking(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	rows, err := r.pool.Query(ctx, selectReservationsQuery, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// reservationsForBookingTx reads the reservation rows inside an open
// transaction.
func reservationsForBookingTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.InventoryReservation, error) {
	rows, err := tx.Query(ctx, selectReservationsQuery, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]domain.InventoryReservation, error) {
	var reservations []domain.InventoryReservation
	for rows.Next() {
		var res domain.InventoryReservation
		if err := rows.Scan(&res.ID, &res.BookingID, &res.RoomTypeID, &res.Night, &res.Units, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// ExpiredPending lists pending bookings created before the cutoff
func (r *PostgresBookingRepository) ExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.expired_pending")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`, selectBookingColumns),
		domain.BookingStatusPending.String(), cutoff, limit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list expired bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

func (r *PostgresBookingRepository) scanBooking(ctx context.Context, query string, arg interface{}) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		status     string
		guestPhone *string
	)

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&booking.ID,
		&booking.Reference,
		&booking.ResortID,
		&booking.RoomTypeID,
		&booking.RatePlanID,
		&booking.GuestName,
		&booking.GuestEmail,
		&guestPhone,
		&booking.CheckIn,
		&booking.CheckOut,
		&booking.Adults,
		&booking.Children,
		&booking.Units,
		&status,
		&booking.TotalPrice,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
		&booking.CompletedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	booking.Status = domain.BookingStatus(status)
	if guestPhone != nil {
		booking.GuestPhone = *guestPhone
	}
	return booking, nil
}

func collectBookings(rows pgx.Rows) ([]*domain.Booking, error) {
	bookings := []*domain.Booking{}
	for rows.Next() {
		booking := &domain.Booking{}
		var (
			status     string
			guestPhone *string
		)
		if err := rows.Scan(
			&booking.ID,
			&booking.Reference,
			&booking.ResortID,
			&booking.RoomTypeID,
			&booking.RatePlanID,
			&booking.GuestName,
			&booking.GuestEmail,
			&guestPhone,
			&booking.CheckIn,
			&booking.CheckOut,
			&booking.Adults,
			&booking.Children,
			&booking.Units,
			&status,
			&booking.TotalPrice,
			&booking.ConfirmedAt,
			&booking.CancelledAt,
			&booking.CompletedAt,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		booking.Status = domain.BookingStatus(status)
		if guestPhone != nil {
			booking.GuestPhone = *guestPhone
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func newReservationID() string {
	return uuid.New().String()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
