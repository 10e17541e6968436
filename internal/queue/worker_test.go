package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/hibiken/asynq"
)

type stubPublishService struct {
	calls int
	err   error
}

func (s *stubPublishService) Publish(ctx context.Context, postID int64) (*transfer.PublishSummary, error) {
	return nil, s.err
}

func (s *stubPublishService) PublishDue(ctx context.Context, postID int64) (*transfer.PublishSummary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &transfer.PublishSummary{PostID: postID}, nil
}

func publishTask(t *testing.T, postID int64) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask(TaskTypePublishPost, payload)
}

func TestHandlePublishPostTaskSwallowsPipelineErrors(t *testing.T) {
	ps := &stubPublishService{err: errors.New("insufficient credits")}
	q := NewQueue(ps)

	// Requeue-or-fail bookkeeping already happened inside PublishDue, so the
	// task must not hand the error to asynq and trigger a second retry policy.
	if err := q.HandlePublishPostTask(context.Background(), publishTask(t, 42)); err != nil {
		t.Errorf("HandlePublishPostTask = %v, want nil", err)
	}
	if ps.calls != 1 {
		t.Errorf("PublishDue called %d times, want 1", ps.calls)
	}
}

func TestHandlePublishPostTaskSuccess(t *testing.T) {
	ps := &stubPublishService{}
	q := NewQueue(ps)

	if err := q.HandlePublishPostTask(context.Background(), publishTask(t, 7)); err != nil {
		t.Errorf("HandlePublishPostTask = %v, want nil", err)
	}
	if ps.calls != 1 {
		t.Errorf("PublishDue called %d times, want 1", ps.calls)
	}
}

func TestHandlePublishPostTaskBadPayloadSkipsRetry(t *testing.T) {
	ps := &stubPublishService{}
	q := NewQueue(ps)

	task := asynq.NewTask(TaskTypePublishPost, []byte("{"))
	err := q.HandlePublishPostTask(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("err = %v, want asynq.SkipRetry", err)
	}
	if ps.calls != 0 {
		t.Error("PublishDue ran with an undecodable payload")
	}
}
