package adapter

import (
	"fmt"
	"strings"

	"github.com/finnholt/beamcast/internal/models"
)

// defaultMaxHashtags applies when a platform rule does not cap hashtags.
const defaultMaxHashtags = 5

type Options struct {
	IncludeHashtags bool
	IncludeCTA      bool
	HasMedia        bool
}

type Result struct {
	Content   string   `json:"content"`
	Warnings  []string `json:"warnings"`
	Truncated bool     `json:"truncated"`
}

// Adapt maps raw content onto one platform's constraints. It is pure and
// deterministic: adaptation runs at compose time and the result is stored on
// the post, so the publish path never re-adapts.
func Adapt(raw string, rule *models.PlatformRule, brand *models.BrandProfile, opts Options) Result {
	res := Result{}
	body := raw

	hashtagBlock := ""
	if opts.IncludeHashtags && brand != nil && len(brand.PrimaryHashtags) > 0 {
		if rule.HashtagsInComment {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: post hashtags as the first comment instead of the caption", rule.Platform))
		} else {
			max := rule.MaxHashtags
			if max <= 0 {
				max = defaultMaxHashtags
			}
			tags := brand.PrimaryHashtags
			if len(tags) > max {
				tags = tags[:max]
			}
			formatted := make([]string, 0, len(tags))
			for _, t := range tags {
				if !strings.HasPrefix(t, "#") {
					t = "#" + t
				}
				formatted = append(formatted, t)
			}
			hashtagBlock = "\n\n" + strings.Join(formatted, " ")
		}
	}

	if opts.IncludeCTA && brand != nil && len(brand.CTATemplates) > 0 {
		body = body + "\n\n" + brand.CTATemplates[0]
	}

	limit := rule.CharacterLimit
	if limit > 0 && runeLen(body)+runeLen(hashtagBlock) > limit {
		res.Truncated = true
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("content truncated for %s (%d character limit)", rule.Platform, limit))

		// The body (content + CTA) absorbs the cut; hashtags survive when
		// they still fit, otherwise they are dropped with a warning.
		available := limit - runeLen(hashtagBlock)
		if available <= 3 && hashtagBlock != "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("hashtags dropped for %s: no room after truncation", rule.Platform))
			hashtagBlock = ""
			available = limit
		}
		body = truncateRunes(body, available-3) + "..."
	}

	res.Content = body + hashtagBlock

	if rule.RequiresMedia && !opts.HasMedia {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s requires at least one media attachment", rule.Platform))
	}
	if rule.ProfessionalTone {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s is a professional network: review the tone before publishing", rule.Platform))
	}
	if rule.VerticalVideo {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s only accepts vertical video", rule.Platform))
	}

	return res
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
