package ledger

import (
	"errors"
	"strings"
	"time"

	"food-ordering-api/apperrors"
)

// errRaced signals that a conditional update matched no row because a
// concurrent transition won. Never escapes the package.
var errRaced = errors.New("ledger: transition raced")

const maxAttempts = 3

// withRetry re-runs fn with bounded backoff while the store reports a
// transient fault. Semantic failures pass through untouched.
func withRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return err
}

// isTransient matches sqlite contention errors that a retry can clear.
func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// storeFault classifies a persistence error: transient faults that survived
// the retries surface as Unavailable, anything else passes through so the
// taxonomy errors keep their mapping.
func storeFault(err error) error {
	var e *apperrors.Error
	if errors.As(err, &e) {
		return err
	}
	if isTransient(err) {
		return apperrors.ErrUnavailable
	}
	return err
}
