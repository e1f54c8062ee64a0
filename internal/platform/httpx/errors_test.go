package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorForStatus(t *testing.T) {
	assert.NoError(t, ErrorForStatus(http.StatusOK))
	assert.ErrorIs(t, ErrorForStatus(http.StatusNotFound), ErrNotFound)
	assert.ErrorIs(t, ErrorForStatus(http.StatusUnprocessableEntity), ErrValidation)
	assert.ErrorIs(t, ErrorForStatus(http.StatusUnauthorized), ErrUnauthorized)
	assert.ErrorIs(t, ErrorForStatus(http.StatusServiceUnavailable), ErrUpstream)
}

func TestRespondErrorWritesProblem(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("load role: %w", ErrForbidden))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Forbidden", body.Title)
	assert.Equal(t, http.StatusForbidden, body.Status)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("create: %w", ErrDuplicate)))
	assert.Equal(t, http.StatusBadGateway, StatusFor(ErrUpstream))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
