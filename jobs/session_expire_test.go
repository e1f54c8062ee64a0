package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDestroyer struct {
	ids []string
	err error
}

func (f *fakeDestroyer) DestroyID(ctx context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

func TestSessionExpireTaskPayload(t *testing.T) {
	task, err := NewSessionExpireTask("abc")
	require.NoError(t, err)
	assert.Equal(t, TaskSessionExpire, task.Type())

	var payload SessionExpirePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "abc", payload.SessionID)
	assert.Equal(t, "session-expire:abc", SessionExpireTaskID("abc"))

	_, err = NewSessionExpireTask("")
	assert.Error(t, err)
}

func TestSessionExpireJobDestroysSession(t *testing.T) {
	sessions := &fakeDestroyer{}
	job := NewSessionExpireJob(sessions, nil, nil)

	task, err := NewSessionExpireTask("sess-1")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"sess-1"}, sessions.ids)
}

func TestSessionExpireJobRejectsBadPayload(t *testing.T) {
	sessions := &fakeDestroyer{}
	job := NewSessionExpireJob(sessions, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskSessionExpire, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, sessions.ids)
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	h := NewHandler(nil, nil)
	rr := httptest.NewRecorder()
	h.health(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"scheduled":0}`, rr.Body.String())
}
