package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
)

const (
	stuckPublishingAfter = 15 * time.Minute
	stuckBatch           = 50
)

type MaintenanceJob struct {
	ur repository.UserRepository
	cr repository.ConnectionRepository
	pr repository.PostRepository
}

func NewMaintenanceJob(
	ur repository.UserRepository,
	cr repository.ConnectionRepository,
	pr repository.PostRepository) *MaintenanceJob {
	return &MaintenanceJob{ur: ur, cr: cr, pr: pr}
}

// ResetDailyCounters zeroes per-connection daily post counters. Runs at
// midnight UTC.
func (j *MaintenanceJob) ResetDailyCounters() {
	ctx := context.Background()

	affected, err := j.cr.ResetDailyCounters(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	slog.Info("daily post counters reset", "connections", affected)
}

// RequeueStuckPosts returns posts abandoned mid-publish (crashed worker) to
// the queue. The requeue consumes a retry so a post that keeps crashing the
// pipeline still terminates.
func (j *MaintenanceJob) RequeueStuckPosts() {
	ctx := context.Background()

	cutoff := time.Now().Add(-stuckPublishingAfter)
	stuck, err := j.pr.ListStuckPublishing(ctx, cutoff, stuckBatch)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range stuck {
		if post.RetryCount+1 >= post.MaxRetries {
			if err := j.pr.FailTerminally(ctx, post.ID, "publishing did not complete"); err != nil {
				slog.Info(err.Error())
			}
			continue
		}
		if err := j.pr.Requeue(ctx, post.ID); err != nil {
			slog.Info(err.Error())
			continue
		}
		slog.Info("stuck post requeued", "post_id", post.ID, "retry_count", post.RetryCount+1)
	}
}

// ArchiveCanceledUsers soft-archives accounts whose subscription ended past
// the grace period.
func (j *MaintenanceJob) ArchiveCanceledUsers() {
	ctx := context.Background()

	cutoff := time.Now().AddDate(0, 0, -models.ArchiveGraceDays)
	archived, err := j.ur.ArchiveCanceledBefore(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if archived > 0 {
		slog.Info("canceled accounts archived", "users", archived)
	}
}
