package store

import (
	"context"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// mysql error numbers that indicate a logic bug or a legitimate duplicate,
// not a transient fault. Retrying these can only repeat the failure.
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrSyntax         = 1064
	mysqlErrFKConstraint   = 1452
)

// isDuplicateKey reports whether err is a MySQL unique-constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlErrDuplicateEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isRetriable classifies a query failure. Business errors from our taxonomy
// and constraint/syntax violations fail immediately; everything else
// (connection drops, lock-wait timeouts) is assumed transient.
func isRetriable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDuplicateEntry, mysqlErrSyntax, mysqlErrFKConstraint:
			return false
		}
	}
	return true
}

// withRetry runs fn with bounded exponential backoff for transient failures.
// The delay doubles per attempt; non-retriable errors surface immediately.
func withRetry(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = fn()
		if err == nil || !isRetriable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
