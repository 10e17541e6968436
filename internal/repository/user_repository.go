package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, bool, error)
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	SetPlan(ctx context.Context, userID int64, plan string) error
	SetSubscription(ctx context.Context, userID int64, subscriptionID, status string, endsAt *time.Time) error
	ArchiveCanceledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, name, plan, credits, trial_ends_at,
	subscription_id, subscription_status, subscription_ends_at, archived_at, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, bool, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Plan,
		&user.Credits, &user.TrialEndsAt, &user.SubscriptionID, &user.SubscriptionStatus,
		&user.SubscriptionEndsAt, &user.ArchivedAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE subscription_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, subscriptionID))
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (email, password_hash, name, plan, credits, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.Plan, user.Credits, user.TrialEndsAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.Plan, user.Credits, user.TrialEndsAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *userRepository) SetPlan(ctx context.Context, userID int64, plan string) error {
	query := `UPDATE users SET plan = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, plan, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) SetSubscription(ctx context.Context, userID int64, subscriptionID, status string, endsAt *time.Time) error {
	query := `
		UPDATE users
		SET subscription_id = $1,
			subscription_status = $2,
			subscription_ends_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, subscriptionID, status, endsAt, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) ArchiveCanceledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE users
		SET archived_at = $1, updated_at = $1
		WHERE archived_at IS NULL
		  AND subscription_status = $2
		  AND subscription_ends_at IS NOT NULL
		  AND subscription_ends_at < $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), models.SubscriptionCanceled, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}
