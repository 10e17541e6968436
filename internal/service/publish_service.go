package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/finnholt/beamcast/internal/dispatch"
	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/finnholt/beamcast/internal/vault"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotEligible  = errors.New("account not eligible to publish")
)

// dispatchConcurrency bounds parallel platform calls within one publish
// invocation.
const dispatchConcurrency = 5

type PublishService interface {
	// Publish runs one publish invocation for a post: reserve credits,
	// dispatch to every target platform, aggregate, settle credits.
	Publish(ctx context.Context, postID int64) (*transfer.PublishSummary, error)
	// PublishDue wraps Publish with tenant eligibility gating and retry
	// bookkeeping. Both the queue worker and the cron sweeper call this, so
	// the two triggers cannot disagree on semantics.
	PublishDue(ctx context.Context, postID int64) (*transfer.PublishSummary, error)
}

type publishService struct {
	pr       repository.PostRepository
	ur       repository.UserRepository
	cr       repository.ConnectionRepository
	rr       repository.PlatformRuleRepository
	credits  CreditService
	vault    *vault.Vault
	registry *dispatch.Registry
}

func NewPublishService(
	pr repository.PostRepository,
	ur repository.UserRepository,
	cr repository.ConnectionRepository,
	rr repository.PlatformRuleRepository,
	credits CreditService,
	v *vault.Vault,
	registry *dispatch.Registry) PublishService {
	return &publishService{
		pr:       pr,
		ur:       ur,
		cr:       cr,
		rr:       rr,
		credits:  credits,
		vault:    v,
		registry: registry,
	}
}

func (s *publishService) Publish(ctx context.Context, postID int64) (summary *transfer.PublishSummary, err error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	// Idempotent no-op: a published post is never re-dispatched or re-charged.
	if post.Status == models.PostStatusPublished {
		return &transfer.PublishSummary{
			PostID:           post.ID,
			Status:           post.Status,
			AlreadyPublished: true,
			Message:          "post already published",
		}, nil
	}

	user, exists, err := s.ur.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %d not found for post %d", post.UserID, post.ID)
	}
	if !user.Eligible(time.Now()) {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, user.EligibilityReason(time.Now()))
	}

	if len(post.Platforms) == 0 {
		return nil, errors.New("post has no target platforms")
	}

	// Exactly one invocation may move the post into publishing. The queue
	// task, the cron sweep and a manual publish can all race here; losing
	// the claim means another trigger owns the attempt, or the post is in a
	// terminal state.
	prevStatus := post.Status
	claimed, err := s.pr.ClaimForPublishing(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &transfer.PublishSummary{
			PostID:  post.ID,
			Status:  post.Status,
			Skipped: true,
			Message: fmt.Sprintf("post in status %q is not claimable for publishing", post.Status),
		}, nil
	}

	// Pessimistic reservation: credits move before any dispatch.
	action := ActionForTargets(len(post.Platforms))
	cost := ActionCost(action)
	deduction, err := s.credits.Deduct(ctx, user.ID, action, map[string]any{"post_id": post.ID})
	if err != nil {
		// Release the claim so the retry driver sees the post again.
		if rerr := s.pr.UpdateStatus(ctx, prevStatus, post.ID); rerr != nil {
			slog.Error(rerr.Error())
		}
		return nil, err
	}

	settled := false
	refund := func(reason string) bool {
		if _, rerr := s.credits.Refund(ctx, user.ID, cost, reason, &deduction.TransactionID); rerr != nil {
			slog.Error("credit refund failed", "user_id", user.ID, "post_id", post.ID, "error", rerr.Error())
			return false
		}
		return true
	}

	// Safety net, not the primary path: any panic below still refunds the
	// reservation before propagating.
	defer func() {
		if p := recover(); p != nil {
			if !settled {
				refund("publish panic")
			}
			panic(p)
		}
	}()

	connections, err := s.cr.ListActiveByPlatforms(ctx, user.ID, post.Platforms)
	if err != nil {
		refund("publish aborted before dispatch")
		settled = true
		return nil, err
	}

	if len(connections) == 0 {
		refunded := refund("no active connections")
		settled = true
		msg := "no active connections for target platforms"
		if serr := s.pr.SetOutcome(ctx, post.ID, models.PostStatusFailed, nil, msg, nil); serr != nil {
			slog.Error(serr.Error())
		}
		return &transfer.PublishSummary{
			PostID:       post.ID,
			Status:       models.PostStatusFailed,
			Charged:      false,
			Refunded:     refunded,
			CreditsSpent: 0,
			Message:      msg,
		}, nil
	}

	results := s.dispatchAll(ctx, post, connections)

	anySuccess := false
	var failures []string
	resultMap := make(map[string]any, len(results))
	for _, res := range results {
		resultMap[res.Platform] = res
		if res.Success {
			anySuccess = true
		} else {
			failures = append(failures, fmt.Sprintf("%s: %s", res.Platform, res.Error))
		}
	}

	summary = &transfer.PublishSummary{
		PostID:       post.ID,
		CreditsSpent: cost,
		Results:      results,
	}

	if anySuccess {
		// Partial success keeps the full charge: billing is per attempt,
		// not per platform.
		now := time.Now()
		summary.Status = models.PostStatusPublished
		summary.Charged = true
		if err := s.pr.SetOutcome(ctx, post.ID, models.PostStatusPublished, resultMap, strings.Join(failures, "; "), &now); err != nil {
			slog.Error(err.Error())
		}
	} else {
		summary.Status = models.PostStatusFailed
		summary.Refunded = refund("all platforms failed")
		summary.CreditsSpent = 0
		summary.Message = strings.Join(failures, "; ")
		if err := s.pr.SetOutcome(ctx, post.ID, models.PostStatusFailed, resultMap, summary.Message, nil); err != nil {
			slog.Error(err.Error())
		}
	}
	settled = true

	return summary, nil
}

// dispatchAll fans out to every target platform. Attempts are independent:
// one platform's failure never blocks or corrupts another's result.
func (s *publishService) dispatchAll(ctx context.Context, post *models.Post, connections []*models.Connection) []dispatch.Result {
	rules := s.loadRules(ctx)

	byPlatform := make(map[string]*models.Connection, len(connections))
	for _, conn := range connections {
		byPlatform[conn.Platform] = conn
	}

	results := make([]dispatch.Result, len(post.Platforms))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, dispatchConcurrency)

	for i, platform := range post.Platforms {
		conn, ok := byPlatform[platform]
		if !ok {
			results[i] = dispatch.Result{Platform: platform, Error: "no active connection"}
			continue
		}

		if rule, ok := rules[platform]; ok && rule.RateLimitDay > 0 && conn.PostsToday >= rule.RateLimitDay {
			results[i] = dispatch.Result{
				Platform: platform,
				Error:    fmt.Sprintf("daily rate limit reached (%d posts/day)", rule.RateLimitDay),
			}
			continue
		}

		creds, err := s.decryptCredentials(conn)
		if err != nil {
			// Fail closed: the attempt is marked failed, the ciphertext is
			// never surfaced, and other platforms proceed.
			results[i] = dispatch.Result{Platform: platform, Error: "credential decrypt failed"}
			continue
		}

		dispatcher, ok := s.registry.Get(platform)
		if !ok {
			results[i] = dispatch.Result{Platform: platform, Error: "unsupported platform"}
			continue
		}

		content, ok := post.AdaptedContent[platform]
		if !ok || content == "" {
			content = post.Content
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, conn *models.Connection, content string, creds dispatch.Credentials) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = dispatcher.Publish(ctx, content, creds, post.MediaURLs)
			if results[i].Success {
				if err := s.cr.IncrementDailyCounter(ctx, conn.ID); err != nil {
					slog.Error(err.Error())
				}
			}
		}(i, conn, content, creds)
	}

	wg.Wait()
	return results
}

func (s *publishService) loadRules(ctx context.Context) map[string]*models.PlatformRule {
	rules, err := s.rr.ListAll(ctx)
	if err != nil {
		slog.Error(err.Error())
		return nil
	}
	byPlatform := make(map[string]*models.PlatformRule, len(rules))
	for _, rule := range rules {
		byPlatform[rule.Platform] = rule
	}
	return byPlatform
}

func (s *publishService) decryptCredentials(conn *models.Connection) (dispatch.Credentials, error) {
	creds := dispatch.Credentials{
		ChannelID: conn.ChannelID,
		ServerURL: conn.ServerURL,
		Handle:    conn.AccountName,
	}

	fields := []struct {
		encrypted string
		target    *string
	}{
		{conn.AccessToken, &creds.AccessToken},
		{conn.WebhookURL, &creds.WebhookURL},
		{conn.BotToken, &creds.BotToken},
	}
	for _, f := range fields {
		if f.encrypted == "" {
			continue
		}
		plaintext, err := s.vault.Decrypt(f.encrypted)
		if err != nil {
			slog.Info(err.Error())
			return dispatch.Credentials{}, err
		}
		*f.target = plaintext
	}

	return creds, nil
}

func (s *publishService) PublishDue(ctx context.Context, postID int64) (*transfer.PublishSummary, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	// Redeliveries of settled work stop here: a terminally failed post must
	// never re-enter the pipeline, and an in-flight or paused one already has
	// an owner. Retry bookkeeping happens once, in recordFailure.
	switch post.Status {
	case models.PostStatusFailed, models.PostStatusPublishing, models.PostStatusPaused:
		return &transfer.PublishSummary{
			PostID:  post.ID,
			Status:  post.Status,
			Skipped: true,
			Message: "post is not awaiting delivery",
		}, nil
	}

	user, exists, err := s.ur.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %d not found for post %d", post.UserID, post.ID)
	}

	// Ineligible tenants park the post without consuming a retry.
	if !user.Eligible(time.Now()) {
		reason := user.EligibilityReason(time.Now())
		if err := s.pr.MarkPaused(ctx, post.ID, reason); err != nil {
			return nil, err
		}
		return &transfer.PublishSummary{
			PostID:  post.ID,
			Status:  models.PostStatusPaused,
			Message: reason,
		}, nil
	}

	summary, err := s.Publish(ctx, postID)
	if err != nil {
		s.recordFailure(ctx, post, err.Error())
		return nil, err
	}

	if summary.Status == models.PostStatusFailed && !summary.Skipped {
		s.recordFailure(ctx, post, summary.Message)
	}

	return summary, nil
}

// recordFailure applies scheduler-level retry bookkeeping after a failed
// invocation: back to scheduled for another attempt, or terminally failed
// once retries are exhausted.
func (s *publishService) recordFailure(ctx context.Context, post *models.Post, reason string) {
	if post.RetryCount+1 >= post.MaxRetries {
		if err := s.pr.FailTerminally(ctx, post.ID, reason); err != nil {
			slog.Error(err.Error())
		}
		return
	}
	if err := s.pr.Requeue(ctx, post.ID); err != nil {
		slog.Error(err.Error())
	}
}
