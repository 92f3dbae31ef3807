package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkedErrors(t *testing.T) {
	tests := []struct {
		name      string
		sentinel  error
		is        func(error) bool
		code      string
		status    int
		retryable bool
	}{
		{"not found", ErrNotFound, IsNotFound, ErrCodeNotFound, http.StatusNotFound, false},
		{"already exists", ErrAlreadyExists, IsAlreadyExists, ErrCodeAlreadyExists, http.StatusConflict, false},
		{"version conflict", ErrVersionConflict, IsVersionConflict, ErrCodeVersionConflict, http.StatusConflict, true},
		{"validation", ErrValidation, IsValidation, ErrCodeValidation, http.StatusBadRequest, false},
		{"invalid operation", ErrInvalidOperation, IsInvalidOperation, ErrCodeInvalidOperation, http.StatusBadRequest, false},
		{"transient", ErrTransient, IsTransient, ErrCodeTransient, http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("boom").WithHint("Something went wrong").Mark(tt.sentinel)

			assert.True(t, tt.is(err))
			assert.Equal(t, tt.code, CodeFromErr(err))
			assert.Equal(t, tt.status, HTTPStatusFromErr(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))

			wrapped := errors.Wrap(err, "outer")
			assert.True(t, tt.is(wrapped))
		})
	}
}

func TestUnmarkedError(t *testing.T) {
	err := errors.New("plain")
	assert.Equal(t, ErrCodeSystemError, CodeFromErr(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(err))
	assert.False(t, IsRetryable(err))

	resp := NewErrorResponse(err)
	assert.False(t, resp.Success)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Display)
	assert.Nil(t, resp.Error.Details)
}

func TestNewErrorResponse(t *testing.T) {
	err := NewError("subscription sub_1 is canceled").
		WithHint("Subscription is not active").
		WithReportableDetails(map[string]any{
			"subscription_id": "sub_1",
			"status":          "canceled",
		}).
		Mark(ErrInvalidOperation)

	resp := NewErrorResponse(err)
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeInvalidOperation, resp.Error.Code)
	assert.Equal(t, "Subscription is not active", resp.Error.Display)
	require.NotNil(t, resp.Error.Details)
	assert.Equal(t, "sub_1", resp.Error.Details["subscription_id"])
	assert.Equal(t, "canceled", resp.Error.Details["status"])
	assert.NotContains(t, resp.Error.Display, "sub_1")
}

func TestWithError(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := WithError(cause).WithHint("Please retry").Mark(ErrTransient)

	assert.True(t, IsTransient(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Please retry", NewErrorResponse(err).Error.Display)
}
