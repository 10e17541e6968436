package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/models"
)

type BrandRepository interface {
	Create(ctx context.Context, brand *models.BrandProfile) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.BrandProfile, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.BrandProfile, error)
	CheckByUserID(ctx context.Context, brandID, userID int64) (bool, error)
	Update(ctx context.Context, brand *models.BrandProfile) error
	Remove(ctx context.Context, id int64) error
}

type brandRepository struct {
	db *sql.DB
}

func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

const brandColumns = `id, user_id, name, tone, primary_hashtags, cta_templates, created_at, updated_at`

func (r *brandRepository) Create(ctx context.Context, brand *models.BrandProfile) (int64, error) {
	query := `
		INSERT INTO brand_profiles (user_id, name, tone, primary_hashtags, cta_templates)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, brand.UserID, brand.Name, brand.Tone,
		brand.PrimaryHashtags, brand.CTATemplates).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *brandRepository) GetByID(ctx context.Context, id int64) (*models.BrandProfile, error) {
	query := `SELECT ` + brandColumns + ` FROM brand_profiles WHERE id = $1`

	var b models.BrandProfile
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.UserID, &b.Name, &b.Tone,
		&b.PrimaryHashtags, &b.CTATemplates, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &b, nil
}

func (r *brandRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.BrandProfile, error) {
	query := `SELECT ` + brandColumns + ` FROM brand_profiles WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var brands []*models.BrandProfile
	for rows.Next() {
		var b models.BrandProfile
		err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Tone, &b.PrimaryHashtags,
			&b.CTATemplates, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		brands = append(brands, &b)
	}
	return brands, nil
}

func (r *brandRepository) CheckByUserID(ctx context.Context, brandID, userID int64) (bool, error) {
	query := `SELECT 1 FROM brand_profiles WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, brandID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *brandRepository) Update(ctx context.Context, brand *models.BrandProfile) error {
	query := `
		UPDATE brand_profiles
		SET name = $1,
			tone = $2,
			primary_hashtags = $3,
			cta_templates = $4,
			updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, brand.Name, brand.Tone, brand.PrimaryHashtags,
		brand.CTATemplates, time.Now(), brand.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *brandRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM brand_profiles WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
