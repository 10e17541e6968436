package transfer

type PostCreation struct {
	Content         string   `json:"content"`
	Platforms       []string `json:"platforms"`
	MediaURLs       []string `json:"media_urls"`
	BrandID         *int64   `json:"brand_id"`
	ScheduledFor    string   `json:"scheduled_for"`
	IncludeHashtags bool     `json:"include_hashtags"`
	IncludeCTA      bool     `json:"include_cta"`
	Draft           bool     `json:"draft"`
}

type AdaptationPreview struct {
	Platform  string   `json:"platform"`
	Content   string   `json:"content"`
	Warnings  []string `json:"warnings"`
	Truncated bool     `json:"truncated"`
}
