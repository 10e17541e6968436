package models

import (
	"time"

	"github.com/lib/pq"
)

type BrandProfile struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	Name            string         `db:"name" json:"name"`
	Tone            string         `db:"tone" json:"tone"`
	PrimaryHashtags pq.StringArray `db:"primary_hashtags" json:"primary_hashtags"`
	CTATemplates    pq.StringArray `db:"cta_templates" json:"cta_templates"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
