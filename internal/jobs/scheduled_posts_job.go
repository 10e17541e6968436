package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/service"
)

const defaultSweepBatch = 25

// ScheduledPostsJob is the safety net behind the delayed queue: it picks up
// posts whose enqueue was missed (restart, redis loss) or that were requeued
// for retry, and runs them through the same publish path as the worker.
type ScheduledPostsJob struct {
	pr repository.PostRepository
	ps service.PublishService
}

func NewScheduledPostsJob(pr repository.PostRepository, ps service.PublishService) *ScheduledPostsJob {
	return &ScheduledPostsJob{pr: pr, ps: ps}
}

func (j *ScheduledPostsJob) PublishDuePosts() {
	ctx := context.Background()

	if _, err := j.SweepOnce(ctx, defaultSweepBatch); err != nil {
		slog.Info(err.Error())
	}
}

// SweepOnce processes at most limit due posts and reports how many were
// attempted. Individual publish failures are already recorded on the post, so
// the sweep keeps going.
func (j *ScheduledPostsJob) SweepOnce(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultSweepBatch
	}

	due, err := j.pr.ListDue(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	for _, post := range due {
		if _, err := j.ps.PublishDue(ctx, post.ID); err != nil {
			slog.Info("publish attempt failed", "post_id", post.ID, "error", err.Error())
		}
	}
	return len(due), nil
}
