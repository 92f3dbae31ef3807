package postgres

import (
	"context"
	"database/sql/driver"
	"testing"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, check: ierr.IsTransient},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, check: ierr.IsTransient},
		{name: "connection exception class", err: &pq.Error{Code: "08006"}, check: ierr.IsTransient},
		{name: "unique violation", err: &pq.Error{Code: "23505", Constraint: "plans_pkey"}, check: ierr.IsAlreadyExists},
		{name: "bad connection", err: driver.ErrBadConn, check: ierr.IsTransient},
		{name: "deadline", err: context.DeadlineExceeded, check: ierr.IsTransient},
		{name: "check violation", err: &pq.Error{Code: "23514"}, check: func(err error) bool { return ierr.CodeFromErr(err) == ierr.ErrCodeDatabase }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err, "test")
			assert.True(t, tt.check(got), "unexpected classification: %v", got)
		})
	}

	assert.NoError(t, ClassifyError(nil, "noop"))
	assert.True(t, ierr.IsRetryable(ClassifyError(&pq.Error{Code: "40001"}, "update")))
	assert.False(t, ierr.IsRetryable(ClassifyError(&pq.Error{Code: "23505"}, "insert")))
}
