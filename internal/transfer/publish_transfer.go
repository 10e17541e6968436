package transfer

import "github.com/finnholt/beamcast/internal/dispatch"

// PublishSummary is the aggregate outcome of one publish invocation. It always
// says whether credits were charged or refunded so the caller is never unsure
// whether they were billed.
type PublishSummary struct {
	PostID           int64             `json:"post_id"`
	Status           string            `json:"status"`
	AlreadyPublished bool              `json:"already_published"`
	Skipped          bool              `json:"skipped,omitempty"`
	Charged          bool              `json:"charged"`
	Refunded         bool              `json:"refunded"`
	CreditsSpent     int               `json:"credits_spent"`
	Results          []dispatch.Result `json:"results"`
	Message          string            `json:"message,omitempty"`
}
