package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// errStopRetry signals the repeater to stop, the actual error is kept by the caller
var errStopRetry = errors.New("stop retry")

// withLockRetry runs fn and repeats it with backoff only while it fails on a lock/busy error
func withLockRetry(ctx context.Context, fn func() error) error {
	var critical error
	err := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second)).Do(ctx, func() error {
		err := fn()
		if err == nil || isLockError(err) {
			return err
		}
		critical = err
		return errStopRetry
	}, errStopRetry)
	if critical != nil {
		return critical
	}
	return err
}

// isLockError checks if an error is a transient lock/busy error of SQLite or PostgreSQL
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "deadlock detected") ||
		strings.Contains(errStr, "could not serialize access")
}
