package models

import "time"

// Connection links one account to one external platform. Token, webhook and
// bot-token fields hold vault ciphertext; plaintext only exists in memory
// while a publish attempt runs.
type Connection struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Platform       string     `db:"platform" json:"platform"`
	AccountName    string     `db:"account_name" json:"account_name"`
	Status         string     `db:"status" json:"status"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	WebhookURL     string     `db:"webhook_url" json:"-"`
	BotToken       string     `db:"bot_token" json:"-"`
	ChannelID      string     `db:"channel_id" json:"channel_id"`
	ServerURL      string     `db:"server_url" json:"server_url"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at"`
	PostsToday     int        `db:"posts_today" json:"posts_today"`
	LastPostAt     *time.Time `db:"last_post_at" json:"last_post_at"`
	VerifiedAt     *time.Time `db:"verified_at" json:"verified_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ConnectionActive             = "active"
	ConnectionPaused             = "paused"
	ConnectionPausedDowngrade    = "paused_downgrade"
	ConnectionPausedSubscription = "paused_subscription"
)
