package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/projectdesk/projectdesk/jobs"
)

// QueueScheduler schedules expiries as delayed asynq tasks so they survive
// restarts and fire once across replicas. The worker process destroys the
// session when the task runs.
type QueueScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

// NewQueueScheduler builds a QueueScheduler on the default queue.
func NewQueueScheduler(client *asynq.Client, inspector *asynq.Inspector) *QueueScheduler {
	return &QueueScheduler{client: client, inspector: inspector, queue: jobs.QueueDefault}
}

// Schedule implements Scheduler.
func (s *QueueScheduler) Schedule(ctx context.Context, key string, at time.Time) error {
	task, err := jobs.NewSessionExpireTask(key)
	if err != nil {
		return err
	}
	if err := s.Cancel(ctx, key); err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(s.queue),
		asynq.ProcessAt(at),
		asynq.TaskID(jobs.SessionExpireTaskID(key)),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("identity: enqueue session expiry: %w", err)
	}
	return nil
}

// Cancel implements Scheduler.
func (s *QueueScheduler) Cancel(_ context.Context, key string) error {
	err := s.inspector.DeleteTask(s.queue, jobs.SessionExpireTaskID(key))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("identity: cancel session expiry: %w", err)
}
