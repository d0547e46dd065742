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

// PostgresCatalogRepository persists resorts, room types, rate plans and
// amenities.
type PostgresCatalogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalogRepository creates a new PostgresCatalogRepository
func NewPostgresCatalogRepository(pool *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{pool: pool}
}

// CreateResort inserts a resort
func (r *PostgresCatalogRepository) CreateResort(ctx context.Context, resort *domain.Resort) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.create_resort")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO resorts (id, name, location, star_rating, tax_rate, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		resort.ID, resort.Name, resort.Location, resort.StarRating,
		resort.TaxRate, resort.Active, resort.CreatedAt, resort.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create resort: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdateResort rewrites a resort
func (r *PostgresCatalogRepository) UpdateResort(ctx context.Context, resort *domain.Resort) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.update_resort")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE resorts
		SET name = $2, location = $3, star_rating = $4, tax_rate = $5, active = $6, updated_at = $7
		WHERE id = $1`,
		resort.ID, resort.Name, resort.Location, resort.StarRating,
		resort.TaxRate, resort.Active, resort.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update resort: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResortNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteResort removes a resort
func (r *PostgresCatalogRepository) DeleteResort(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.delete_resort")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM resorts WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete resort: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResortNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetResort retrieves a resort by ID
func (r *PostgresCatalogRepository) GetResort(ctx context.Context, id string) (*domain.Resort, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_resort")
	defer span.End()

	span.SetAttributes(attribute.String("resort_id", id))

	resort := &domain.Resort{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, location, star_rating, tax_rate, active, created_at, updated_at
		FROM resorts WHERE id = $1`, id,
	).Scan(
		&resort.ID, &resort.Name, &resort.Location, &resort.StarRating,
		&resort.TaxRate, &resort.Active, &resort.CreatedAt, &resort.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResortNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get resort: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return resort, nil
}

// ListResorts lists resorts ordered by name
func (r *PostgresCatalogRepository) ListResorts(ctx context.Context, limit, offset int) ([]*domain.Resort, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.list_resorts")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, location, star_rating, tax_rate, active, created_at, updated_at
		FROM resorts ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list resorts: %w", err)
	}
	defer rows.Close()

	resorts := []*domain.Resort{}
	for rows.Next() {
		resort := &domain.Resort{}
		if err := rows.Scan(
			&resort.ID, &resort.Name, &resort.Location, &resort.StarRating,
			&resort.TaxRate, &resort.Active, &resort.CreatedAt, &resort.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resort: %w", err)
		}
		resorts = append(resorts, resort)
	}

	span.SetStatus(codes.Ok, "")
	return resorts, rows.Err()
}

// CreateRoomType inserts a room type
func (r *PostgresCatalogRepository) CreateRoomType(ctx context.Context, roomType *domain.RoomType) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.create_room_type")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO room_types (id, resort_id, name, max_occupancy, total_units, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		roomType.ID, roomType.ResortID, roomType.Name, roomType.MaxOccupancy,
		roomType.TotalUnits, roomType.Active, roomType.CreatedAt, roomType.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create room type: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdateRoomType rewrites a room type
func (r *PostgresCatalogRepository) UpdateRoomType(ctx context.Context, roomType *domain.RoomType) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.update_room_type")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE room_types
		SET name = $2, max_occupancy = $3, total_units = $4, active = $5, updated_at = $6
		WHERE id = $1`,
		roomType.ID, roomType.Name, roomType.MaxOccupancy,
		roomType.TotalUnits, roomType.Active, roomType.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update room type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomTypeNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteRoomType removes a room type
func (r *PostgresCatalogRepository) DeleteRoomType(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.delete_room_type")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM room_types WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete room type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomTypeNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetRoomType retrieves a room type by ID
func (r *PostgresCatalogRepository) GetRoomType(ctx context.Context, id string) (*domain.RoomType, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_room_type")
	defer span.End()

	span.SetAttributes(attribute.String("room_type_id", id))

	roomType := &domain.RoomType{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, resort_id, name, max_occupancy, total_units, active, created_at, updated_at
		FROM room_types WHERE id = $1`, id,
	).Scan(
		&roomType.ID, &roomType.ResortID, &roomType.Name, &roomType.MaxOccupancy,
		&roomType.TotalUnits, &roomType.Active, &roomType.CreatedAt, &roomType.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomTypeNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get room type: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return roomType, nil
}

// CreateRatePlan inserts a rate plan
func (r *PostgresCatalogRepository) CreateRatePlan(ctx context.Context, plan *domain.RatePlan) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.create_rate_plan")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO rate_plans (id, room_type_id, resort_id, name, discount_percent, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		plan.ID, plan.RoomTypeID, plan.ResortID, plan.Name,
		plan.DiscountPercent, plan.Active, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create rate plan: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdateRatePlan rewrites a rate plan
func (r *PostgresCatalogRepository) UpdateRatePlan(ctx context.Context, plan *domain.RatePlan) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.update_rate_plan")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE rate_plans
		SET name = $2, discount_percent = $3, active = $4, updated_at = $5
		WHERE id = $1`,
		plan.ID, plan.Name, plan.DiscountPercent, plan.Active, plan.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update rate plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRatePlanNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteRatePlan removes a rate plan
func (r *PostgresCatalogRepository) DeleteRatePlan(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.delete_rate_plan")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM rate_plans WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete rate plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRatePlanNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetRatePlan retrieves a rate plan by ID
func (r *PostgresCatalogRepository) GetRatePlan(ctx context.Context, id string) (*domain.RatePlan, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_rate_plan")
	defer span.End()

	span.SetAttributes(attribute.String("rate_plan_id", id))

	plan := &domain.RatePlan{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, room_type_id, resort_id, name, discount_percent, active, created_at, updated_at
		FROM rate_plans WHERE id = $1`, id,
	).Scan(
		&plan.ID, &plan.RoomTypeID, &plan.ResortID, &plan.Name,
		&plan.DiscountPercent, &plan.Active, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRatePlanNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get rate plan: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return plan, nil
}

// CreateAmenity inserts an amenity
func (r *PostgresCatalogRepository) CreateAmenity(ctx context.Context, amenity *domain.Amenity) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.create_amenity")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO amenities (id, name, owner_kind, owner_id, resort_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		amenity.ID, amenity.Name, string(amenity.OwnerKind), amenity.OwnerID,
		amenity.ResortID, amenity.CreatedAt, amenity.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create amenity: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteAmenity removes an amenity
func (r *PostgresCatalogRepository) DeleteAmenity(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.delete_amenity")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM amenities WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete amenity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAmenityNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetAmenity retrieves an amenity by ID
func (r *PostgresCatalogRepository) GetAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_amenity")
	defer span.End()

	span.SetAttributes(attribute.String("amenity_id", id))

	amenity := &domain.Amenity{}
	var ownerKind string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_kind, owner_id, resort_id, created_at, updated_at
		FROM amenities WHERE id = $1`, id,
	).Scan(
		&amenity.ID, &amenity.Name, &ownerKind, &amenity.OwnerID,
		&amenity.ResortID, &amenity.CreatedAt, &amenity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAmenityNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get amenity: %w", err)
	}
	amenity.OwnerKind = domain.AmenityOwnerKind(ownerKind)

	span.SetStatus(codes.Ok, "")
	return amenity, nil
}

// SearchCandidates joins active resorts, room types and rate plans matching
// the static search filters. The amenity filter matches amenities attached
// to either the resort or the room type.
func (r *PostgresCatalogRepository) SearchCandidates(ctx context.Context, filter SearchFilter) ([]SearchRow, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.search_candidates")
	defer span.End()

	query := `
		SELECT
			rs.id, rs.name, rs.location, rs.star_rating, rs.tax_rate, rs.active, rs.created_at, rs.updated_at,
			rt.id, rt.resort_id, rt.name, rt.max_occupancy, rt.total_units, rt.active, rt.created_at, rt.updated_at,
			rp.id, rp.room_type_id, rp.resort_id, rp.name, rp.discount_percent, rp.active, rp.created_at, rp.updated_at
		FROM resorts rs
		JOIN room_types rt ON rt.resort_id = rs.id AND rt.active = TRUE
		JOIN rate_plans rp ON rp.room_type_id = rt.id AND rp.active = TRUE
		WHERE rs.active = TRUE`

	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ResortID != "" {
		query += ` AND rs.id = ` + arg(filter.ResortID)
	}
	if filter.RoomTypeID != "" {
		query += ` AND rt.id = ` + arg(filter.RoomTypeID)
	}
	if filter.MinCapacity > 0 {
		query += ` AND rt.max_occupancy >= ` + arg(filter.MinCapacity)
	}
	if filter.MinStars > 0 {
		query += ` AND rs.star_rating >= ` + arg(filter.MinStars)
	}
	if filter.AmenityID != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM amenities a
			WHERE a.id = ` + arg(filter.AmenityID) + `
				AND ((a.owner_kind = 'resort' AND a.owner_id = rs.id)
					OR (a.owner_kind = 'room_type' AND a.owner_id = rt.id)))`
	}
	query += ` ORDER BY rs.name, rt.name, rp.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to search candidates: %w", err)
	}
	defer rows.Close()

	var results []SearchRow
	for rows.Next() {
		var row SearchRow
		if err := rows.Scan(
			&row.Resort.ID, &row.Resort.Name, &row.Resort.Location, &row.Resort.StarRating,
			&row.Resort.TaxRate, &row.Resort.Active, &row.Resort.CreatedAt, &row.Resort.UpdatedAt,
			&row.RoomType.ID, &row.RoomType.ResortID, &row.RoomType.Name, &row.RoomType.MaxOccupancy,
			&row.RoomType.TotalUnits, &row.RoomType.Active, &row.RoomType.CreatedAt, &row.RoomType.UpdatedAt,
			&row.RatePlan.ID, &row.RatePlan.RoomTypeID, &row.RatePlan.ResortID, &row.RatePlan.Name,
			&row.RatePlan.DiscountPercent, &row.RatePlan.Active, &row.RatePlan.CreatedAt, &row.RatePlan.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate search rows: %w", err)
	}

	span.SetAttributes(attribute.Int("candidates", len(results)))
	span.SetStatus(codes.Ok, "")
	return results, nil
}
