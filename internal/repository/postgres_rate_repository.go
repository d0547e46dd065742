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

// PostgresRateRepository persists seasonal rate calendar entries
type PostgresRateRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRateRepository creates a new PostgresRateRepository
func NewPostgresRateRepository(pool *pgxpool.Pool) *PostgresRateRepository {
	return &PostgresRateRepository{pool: pool}
}

const selectRateColumns = `
	id, rate_plan_id, resort_id, nightly_price, valid_from, valid_to, active, created_at, updated_at
`

// Create inserts a calendar entry
func (r *PostgresRateRepository) Create(ctx context.Context, rate *domain.SeasonalRate) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rate.create")
	defer span.End()

	span.SetAttributes(attribute.String("rate_plan_id", rate.RatePlanID))

	_, err := r.pool.Exec(ctx, `
		INSERT INTO seasonal_rates (id, rate_plan_id, resort_id, nightly_price, valid_from, valid_to, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rate.ID, rate.RatePlanID, rate.ResortID, rate.NightlyPrice,
		rate.ValidFrom, rate.ValidTo, rate.Active, rate.CreatedAt, rate.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create seasonal rate: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update rewrites a calendar entry
func (r *PostgresRateRepository) Update(ctx context.Context, rate *domain.SeasonalRate) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rate.update")
	defer span.End()

	span.SetAttributes(attribute.String("rate_id", rate.ID))

	tag, err := r.pool.Exec(ctx, `
		UPDATE seasonal_rates
		SET nightly_price = $2, valid_from = $3, valid_to = $4, active = $5, updated_at = $6
		WHERE id = $1`,
		rate.ID, rate.NightlyPrice, rate.ValidFrom, rate.ValidTo, rate.Active, rate.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update seasonal rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrSeasonalRateNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes a calendar entry
func (r *PostgresRateRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rate.delete")
	defer span.End()

	span.SetAttributes(attribute.String("rate_id", id))

	tag, err := r.pool.Exec(ctx, `DELETE FROM seasonal_rates WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete seasonal rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrSeasonalRateNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a calendar entry
func (r *PostgresRateRepository) GetByID(ctx context.Context, id string) (*domain.SeasonalRate, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rate.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("rate_id", id))

	rate := &domain.SeasonalRate{}
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM seasonal_rates WHERE id = $1`, selectRateColumns), id,
	).Scan(
		&rate.ID, &rate.RatePlanID, &rate.ResortID, &rate.NightlyPrice,
		&rate.ValidFrom, &rate.ValidTo, &rate.Active, &rate.CreatedAt, &rate.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrSeasonalRateNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get seasonal rate: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return rate, nil
}

// ActiveForRange lists active entries of a rate plan overlapping [from, to),
// newest created first. Callers take the first entry covering a night, so
// this ordering makes the most recently created entry win overlaps.
func (r *PostgresRateRepository) ActiveForRange(ctx context.Context, ratePlanID string, from, to time.Time) ([]*domain.SeasonalRate, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rate.active_for_range")
	defer span.End()

	span.SetAttributes(attribute.String("rate_plan_id", ratePlanID))

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`
			SELECT %s FROM seasonal_rates
			WHERE rate_plan_id = $1 AND active = TRUE
				AND valid_from < $3 AND valid_to > $2
			ORDER BY created_at DESC, id DESC`, selectRateColumns),
		ratePlanID, from, to,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list seasonal rates: %w", err)
	}
	defer rows.Close()

	var rates []*domain.SeasonalRate
	for rows.Next() {
		rate := &domain.SeasonalRate{}
		if err := rows.Scan(
			&rate.ID, &rate.RatePlanID, &rate.ResortID, &rate.NightlyPrice,
			&rate.ValidFrom, &rate.ValidTo, &rate.Active, &rate.CreatedAt, &rate.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan seasonal rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate seasonal rates: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(rates)))
	span.SetStatus(codes.Ok, "")
	return rates, nil
}
