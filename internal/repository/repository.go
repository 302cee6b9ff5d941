package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/Dan9191/savings-planner/internal/utils"
	"github.com/lib/pq"
)

// unique_violation
const pqUniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db     *sql.DB
	sealer *utils.Sealer
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, sealer *utils.Sealer) *Repository {
	return &Repository{db: db, sealer: sealer}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO planner.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%s: %w", user.Email, models.ErrUserExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM planner.users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM planner.users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SavePlan stores a sealed snapshot of the plan
func (r *Repository) SavePlan(ctx context.Context, plan *models.Plan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	payload, mac, err := r.sealer.Seal(raw)
	if err != nil {
		return fmt.Errorf("failed to seal plan: %w", err)
	}

	query := `
		INSERT INTO planner.plans (id, user_id, payload, mac, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, plan.ID, plan.UserID, payload, mac, plan.CreatedAt, plan.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// GetPlan loads a plan owned by userID that has not expired at now
func (r *Repository) GetPlan(ctx context.Context, id string, userID int64, now time.Time) (*models.Plan, error) {
	var payload, mac string
	query := `
		SELECT payload, mac
		FROM planner.plans
		WHERE id = $1 AND user_id = $2 AND expires_at > $3`
	err := r.db.QueryRowContext(ctx, query, id, userID, now).Scan(&payload, &mac)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", id, models.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	raw, err := r.sealer.Open(payload, mac)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan %s: %w", id, err)
	}
	plan := &models.Plan{}
	if err := json.Unmarshal(raw, plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan %s: %w", id, err)
	}
	return plan, nil
}

// PurgeExpired deletes plans that expired at or before now
func (r *Repository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM planner.plans WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge plans: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged plans: %w", err)
	}
	return n, nil
}
