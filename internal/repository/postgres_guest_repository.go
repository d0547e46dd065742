package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// PostgresGuestRepository persists guest profiles
type PostgresGuestRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresGuestRepository creates a new PostgresGuestRepository
func NewPostgresGuestRepository(pool *pgxpool.Pool) *PostgresGuestRepository {
	return &PostgresGuestRepository{pool: pool}
}

// Upsert inserts a guest profile or refreshes it by email
func (r *PostgresGuestRepository) Upsert(ctx context.Context, guest *domain.GuestProfile) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.guest.upsert")
	defer span.End()

	span.SetAttributes(attribute.String("guest_email", guest.Email))

	_, err := r.pool.Exec(ctx, `
		INSERT INTO guest_profiles (id, name, email, phone, nationality, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			nationality = EXCLUDED.nationality,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		guest.ID, guest.Name, guest.Email, nullString(guest.Phone),
		nullString(guest.Nationality), nullString(guest.Notes),
		guest.CreatedAt, guest.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to upsert guest profile: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a guest profile by ID
func (r *PostgresGuestRepository) GetByID(ctx context.Context, id string) (*domain.GuestProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.guest.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("guest_id", id))

	return r.getGuest(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a guest profile by email
func (r *PostgresGuestRepository) GetByEmail(ctx context.Context, email string) (*domain.GuestProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.guest.get_by_email")
	defer span.End()

	return r.getGuest(ctx, `WHERE email = $1`, email)
}

func (r *PostgresGuestRepository) getGuest(ctx context.Context, where string, arg interface{}) (*domain.GuestProfile, error) {
	guest := &domain.GuestProfile{}
	var phone, nationality, notes *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, nationality, notes, created_at, updated_at FROM guest_profiles `+where,
		arg,
	).Scan(&guest.ID, &guest.Name, &guest.Email, &phone, &nationality, &notes, &guest.CreatedAt, &guest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGuestNotFound
		}
		return nil, fmt.Errorf("failed to get guest profile: %w", err)
	}
	if phone != nil {
		guest.Phone = *phone
	}
	if nationality != nil {
		guest.Nationality = *nationality
	}
	if notes != nil {
		guest.Notes = *notes
	}
	return guest, nil
}
