package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/adapter"
	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/lib/pq"
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, []transfer.AdaptationPreview, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	ur repository.UserRepository
	br repository.BrandRepository
	rr repository.PlatformRuleRepository
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	ur repository.UserRepository,
	br repository.BrandRepository,
	rr repository.PlatformRuleRepository) PostService {
	return &postService{
		db: db,
		pr: pr,
		ur: ur,
		br: br,
		rr: rr,
	}
}

// CreatePost validates the request, adapts the content for every target
// platform at compose time, and stores the post. The returned duration is how
// long until the post is due (zero for publish-now).
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, []transfer.AdaptationPreview, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, nil, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, 0, nil, err
	}
	if len(pc.Platforms) == 0 {
		err := errors.New("no target platforms selected")
		slog.Info(err.Error())
		return 0, 0, nil, err
	}

	user, exists, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return 0, 0, nil, err
	}
	if !exists {
		return 0, 0, nil, errors.New("user doesn't exist")
	}

	limits := models.PlanLimitsByName[user.Plan]
	if limits.MaxPlatforms > 0 && len(pc.Platforms) > limits.MaxPlatforms {
		err := fmt.Errorf("plan %s allows at most %d platforms per post - upgrade for more", user.Plan, limits.MaxPlatforms)
		slog.Info(err.Error())
		return 0, 0, nil, err
	}

	monthStart := time.Now().AddDate(0, -1, 0)
	postCount, err := s.pr.CountByUserSince(ctx, userID, monthStart)
	if err != nil {
		return 0, 0, nil, err
	}
	if limits.MonthlyPosts > 0 && postCount >= limits.MonthlyPosts {
		err := fmt.Errorf("monthly post limit reached (%d) - upgrade for more", limits.MonthlyPosts)
		slog.Info(err.Error())
		return 0, 0, nil, err
	}

	var scheduledFor time.Time
	if pc.ScheduledFor != "" {
		scheduledFor, err = time.Parse("2006-01-02T15:04", pc.ScheduledFor)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return 0, 0, nil, err
		}
	} else {
		scheduledFor = time.Now()
	}

	var brand *models.BrandProfile
	if pc.BrandID != nil {
		owned, err := s.br.CheckByUserID(ctx, *pc.BrandID, userID)
		if err != nil {
			return 0, 0, nil, err
		}
		if !owned {
			err := errors.New("brand profile doesn't exist")
			slog.Info(err.Error())
			return 0, 0, nil, err
		}
		brand, err = s.br.GetByID(ctx, *pc.BrandID)
		if err != nil {
			return 0, 0, nil, err
		}
	}

	adaptedContent, previews, err := s.adaptForPlatforms(ctx, pc, brand)
	if err != nil {
		return 0, 0, nil, err
	}

	status := models.PostStatusScheduled
	if pc.Draft {
		status = models.PostStatusDraft
	}

	post := models.Post{
		UserID:         userID,
		BrandID:        pc.BrandID,
		Content:        pc.Content,
		AdaptedContent: adaptedContent,
		Platforms:      pq.StringArray(pc.Platforms),
		MediaURLs:      pq.StringArray(pc.MediaURLs),
		Status:         status,
		ScheduledFor:   &scheduledFor,
		MaxRetries:     models.DefaultMaxRetries,
	}

	postID, err := s.pr.Create(ctx, nil, &post)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("error creating post: %w", err)
	}

	delay := time.Until(scheduledFor)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, previews, nil
}

// adaptForPlatforms runs the content adapter once per target. Unknown
// platform names are rejected here, before any state mutation.
func (s *postService) adaptForPlatforms(ctx context.Context, pc *transfer.PostCreation, brand *models.BrandProfile) (map[string]string, []transfer.AdaptationPreview, error) {
	adapted := make(map[string]string, len(pc.Platforms))
	previews := make([]transfer.AdaptationPreview, 0, len(pc.Platforms))

	for _, platform := range pc.Platforms {
		rule, err := s.rr.GetByPlatform(ctx, platform)
		if err != nil {
			return nil, nil, err
		}
		if rule == nil {
			err := fmt.Errorf("unknown platform %q", platform)
			slog.Info(err.Error())
			return nil, nil, err
		}

		res := adapter.Adapt(pc.Content, rule, brand, adapter.Options{
			IncludeHashtags: pc.IncludeHashtags,
			IncludeCTA:      pc.IncludeCTA,
			HasMedia:        len(pc.MediaURLs) > 0,
		})

		adapted[platform] = res.Content
		previews = append(previews, transfer.AdaptationPreview{
			Platform:  platform,
			Content:   res.Content,
			Warnings:  res.Warnings,
			Truncated: res.Truncated,
		})
	}

	return adapted, previews, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if userID == 0 {
		err := errors.New("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts")
	}
	return posts, nil
}

// Remove deletes a post that hasn't gone out yet. Published posts are kept
// for analytics and cannot be removed.
func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return err
	}

	switch post.Status {
	case models.PostStatusPublished, models.PostStatusPublishing:
		err := errors.New("published posts cannot be removed")
		slog.Info(err.Error())
		return err
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post")
	}
	return nil
}
