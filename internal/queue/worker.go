package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// HandlePublishPostTask runs a due post through the publish pipeline.
// Eligibility gating and retry bookkeeping live in PublishDue, so a queued
// task and a cron sweep behave identically. The pipeline error is swallowed
// on purpose: PublishDue has already requeued or terminally failed the post,
// and returning the error would stack asynq's own retry policy on top of
// that bookkeeping.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("publish task payload: %v: %w", err, asynq.SkipRetry)
	}

	if _, err := q.ps.PublishDue(ctx, payload.PostID); err != nil {
		slog.Error("publish attempt failed", "post_id", payload.PostID, "error", err.Error())
	}
	return nil
}
