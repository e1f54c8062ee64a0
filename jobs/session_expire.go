package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/projectdesk/projectdesk/internal/jobs"
)

// TaskSessionExpire ends a console session whose token ran out.
const TaskSessionExpire = "session:expire"

// SessionExpirePayload identifies the session to destroy.
type SessionExpirePayload struct {
	SessionID string `json:"session_id"`
}

// SessionExpireTaskID is the unique task id for a session, so re-arming
// replaces the pending task.
func SessionExpireTaskID(sessionID string) string {
	return "session-expire:" + sessionID
}

// NewSessionExpireTask builds the task payload.
func NewSessionExpireTask(sessionID string) (*asynq.Task, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("jobs: session id required")
	}
	data, err := json.Marshal(SessionExpirePayload{SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionExpire, data), nil
}

// SessionDestroyer removes a stored session by id.
type SessionDestroyer interface {
	DestroyID(ctx context.Context, id string) error
}

// SessionExpireJob handles TaskSessionExpire.
type SessionExpireJob struct {
	sessions SessionDestroyer
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewSessionExpireJob builds the job handler.
func NewSessionExpireJob(sessions SessionDestroyer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionExpireJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionExpireJob{sessions: sessions, logger: logger, metrics: metrics}
}

// Handle processes TaskSessionExpire tasks.
func (j *SessionExpireJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskSessionExpire)
	var payload SessionExpirePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.SessionID == "" {
		return tracker.End(fmt.Errorf("jobs: invalid session expire payload: %w", asynq.SkipRetry))
	}
	if err := j.sessions.DestroyID(ctx, payload.SessionID); err != nil {
		return tracker.End(err)
	}
	j.logger.Info("session expired", slog.String("session", payload.SessionID))
	return tracker.End(nil)
}
