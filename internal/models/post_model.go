package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID             int64             `db:"id" json:"id"`
	UserID         int64             `db:"user_id" json:"user_id"`
	BrandID        *int64            `db:"brand_id" json:"brand_id"`
	Content        string            `db:"content" json:"content"`
	AdaptedContent map[string]string `db:"adapted_content" json:"adapted_content"`
	Platforms      pq.StringArray    `db:"platforms" json:"platforms"`
	MediaURLs      pq.StringArray    `db:"media_urls" json:"media_urls"`
	Status         string            `db:"status" json:"status"`
	ScheduledFor   *time.Time        `db:"scheduled_for" json:"scheduled_for"`
	RetryCount     int               `db:"retry_count" json:"retry_count"`
	MaxRetries     int               `db:"max_retries" json:"max_retries"`
	Results        map[string]any    `db:"results" json:"results"`
	ErrorMessage   string            `db:"error_message" json:"error_message"`
	PublishedAt    *time.Time        `db:"published_at" json:"published_at"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
	PostStatusPaused     = "paused"
)

// DefaultMaxRetries bounds scheduler-level retries for a post.
const DefaultMaxRetries = 3
