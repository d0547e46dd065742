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

// PostgresActorRepository persists back-office users and their
// managed-resort assignments.
type PostgresActorRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresActorRepository creates a new PostgresActorRepository
func NewPostgresActorRepository(pool *pgxpool.Pool) *PostgresActorRepository {
	return &PostgresActorRepository{pool: pool}
}

// Create inserts an actor
func (r *PostgresActorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.create")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, api_key_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		actor.ID, actor.Email, actor.Name, actor.Role.String(),
		nullString(actor.APIKeyHash), actor.CreatedAt, actor.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create user: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update rewrites an actor's mutable fields
func (r *PostgresActorRepository) Update(ctx context.Context, actor *domain.Actor) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.update")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", actor.ID))

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, name = $3, role = $4, api_key_hash = $5, updated_at = $6
		WHERE id = $1`,
		actor.ID, actor.Email, actor.Name, actor.Role.String(),
		nullString(actor.APIKeyHash), actor.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActorNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes an actor and their assignments
func (r *PostgresActorRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.delete")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM manager_assignments WHERE user_id = $1`, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActorNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID loads an actor with their managed resort set
func (r *PostgresActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	return r.getActor(ctx, `WHERE id = $1`, id)
}

// GetByAPIKeyHash resolves an integration API key hash to its actor
func (r *PostgresActorRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Actor, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.get_by_api_key_hash")
	defer span.End()

	return r.getActor(ctx, `WHERE api_key_hash = $1`, hash)
}

func (r *PostgresActorRepository) getActor(ctx context.Context, where string, arg interface{}) (*domain.Actor, error) {
	actor := &domain.Actor{}
	var (
		role       string
		apiKeyHash *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, role, api_key_hash, created_at, updated_at FROM users `+where,
		arg,
	).Scan(&actor.ID, &actor.Email, &actor.Name, &role, &apiKeyHash, &actor.CreatedAt, &actor.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActorNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	actor.Role = domain.Role(role)
	if apiKeyHash != nil {
		actor.APIKeyHash = *apiKeyHash
	}

	if actor.Role == domain.RoleResortManager {
		managed, err := r.managedResortIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		actor.ManagedResortIDs = managed
	}
	return actor, nil
}

func (r *PostgresActorRepository) managedResortIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT resort_id FROM manager_assignments WHERE user_id = $1 ORDER BY resort_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed resorts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan managed resort: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List lists actors ordered by creation time
func (r *PostgresActorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Actor, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.list")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, role, api_key_hash, created_at, updated_at
		FROM users ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	actors := []*domain.Actor{}
	for rows.Next() {
		actor := &domain.Actor{}
		var (
			role       string
			apiKeyHash *string
		)
		if err := rows.Scan(&actor.ID, &actor.Email, &actor.Name, &role, &apiKeyHash, &actor.CreatedAt, &actor.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		actor.Role = domain.Role(role)
		if apiKeyHash != nil {
			actor.APIKeyHash = *apiKeyHash
		}
		actors = append(actors, actor)
	}

	span.SetStatus(codes.Ok, "")
	return actors, rows.Err()
}

// AssignResort grants a manager a resort. Idempotent on repeats.
func (r *PostgresActorRepository) AssignResort(ctx context.Context, assignment *domain.ManagerAssignment) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.assign_resort")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", assignment.UserID),
		attribute.String("resort_id", assignment.ResortID),
	)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO manager_assignments (id, user_id, resort_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, resort_id) DO NOTHING`,
		assignment.ID, assignment.UserID, assignment.ResortID, assignment.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to assign resort: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UnassignResort revokes a manager's resort
func (r *PostgresActorRepository) UnassignResort(ctx context.Context, userID, resortID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.actor.unassign_resort")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`DELETE FROM manager_assignments WHERE user_id = $1 AND resort_id = $2`,
		userID, resortID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to unassign resort: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// AssignmentsForUser lists a user's manager assignments
func (r *PostgresActorRepository) AssignmentsForUser(ctx context.Context, userID string) ([]*domain.ManagerAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, resort_id, created_at FROM manager_assignments WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*domain.ManagerAssignment{}
	for rows.Next() {
		a := &domain.ManagerAssignment{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.ResortID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
