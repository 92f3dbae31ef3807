package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/lib/pq"
)

// SQLSTATE codes and classes that indicate the statement can be retried as a whole
var transientCodes = map[pq.ErrorCode]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled (statement_timeout)
	"57P01": {}, // admin_shutdown
	"53300": {}, // too_many_connections
}

const uniqueViolation pq.ErrorCode = "23505"

// ClassifyError marks a driver error with the matching internal sentinel.
// sql.ErrNoRows is left to the repositories which know the entity name.
func ClassifyError(err error, op string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if _, ok := transientCodes[pqErr.Code]; ok || pqErr.Code.Class() == "08" {
			return ierr.WithError(err).
				WithHint("The database is busy, please retry").
				WithReportableDetails(map[string]any{"operation": op}).
				Mark(ierr.ErrTransient)
		}
		if pqErr.Code == uniqueViolation {
			return ierr.WithError(err).
				WithHint("A record with the same identifier already exists").
				WithReportableDetails(map[string]any{"operation": op, "constraint": pqErr.Constraint}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Database operation failed").
			WithReportableDetails(map[string]any{"operation": op}).
			Mark(ierr.ErrDatabase)
	}

	if isTransientConnError(err) {
		return ierr.WithError(err).
			WithHint("The database is unavailable, please retry").
			WithReportableDetails(map[string]any{"operation": op}).
			Mark(ierr.ErrTransient)
	}

	return ierr.WithError(err).
		WithHint("Database operation failed").
		WithReportableDetails(map[string]any{"operation": op}).
		Mark(ierr.ErrDatabase)
}

func isTransientConnError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe")
}
