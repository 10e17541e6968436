package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/finnholt/beamcast/internal/models"
)

type PlatformRuleRepository interface {
	GetByPlatform(ctx context.Context, platform string) (*models.PlatformRule, error)
	ListAll(ctx context.Context) ([]*models.PlatformRule, error)
}

type platformRuleRepository struct {
	db *sql.DB
}

func NewPlatformRuleRepository(db *sql.DB) PlatformRuleRepository {
	return &platformRuleRepository{db: db}
}

const platformRuleColumns = `platform, character_limit, requires_media, max_hashtags,
	hashtags_in_comment, professional_tone, vertical_video, rate_limit_hour, rate_limit_day`

func (r *platformRuleRepository) GetByPlatform(ctx context.Context, platform string) (*models.PlatformRule, error) {
	query := `SELECT ` + platformRuleColumns + ` FROM platform_rules WHERE platform = $1`

	var rule models.PlatformRule
	err := r.db.QueryRowContext(ctx, query, platform).Scan(&rule.Platform, &rule.CharacterLimit,
		&rule.RequiresMedia, &rule.MaxHashtags, &rule.HashtagsInComment, &rule.ProfessionalTone,
		&rule.VerticalVideo, &rule.RateLimitHour, &rule.RateLimitDay)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &rule, nil
}

func (r *platformRuleRepository) ListAll(ctx context.Context) ([]*models.PlatformRule, error) {
	query := `SELECT ` + platformRuleColumns + ` FROM platform_rules`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var rules []*models.PlatformRule
	for rows.Next() {
		var rule models.PlatformRule
		err := rows.Scan(&rule.Platform, &rule.CharacterLimit, &rule.RequiresMedia,
			&rule.MaxHashtags, &rule.HashtagsInComment, &rule.ProfessionalTone,
			&rule.VerticalVideo, &rule.RateLimitHour, &rule.RateLimitDay)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}
