package models

// PlatformRule is static per-platform posting configuration. Rows are seeded
// once and treated as read-only at publish time.
type PlatformRule struct {
	Platform          string `db:"platform" json:"platform"`
	CharacterLimit    int    `db:"character_limit" json:"character_limit"`
	RequiresMedia     bool   `db:"requires_media" json:"requires_media"`
	MaxHashtags       int    `db:"max_hashtags" json:"max_hashtags"`
	HashtagsInComment bool   `db:"hashtags_in_comment" json:"hashtags_in_comment"`
	ProfessionalTone  bool   `db:"professional_tone" json:"professional_tone"`
	VerticalVideo     bool   `db:"vertical_video" json:"vertical_video"`
	RateLimitHour     int    `db:"rate_limit_hour" json:"rate_limit_hour"`
	RateLimitDay      int    `db:"rate_limit_day" json:"rate_limit_day"`
}
