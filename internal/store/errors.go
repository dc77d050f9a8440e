package store

import (
	"fmt"

	"github.com/dhansen/plenarycrawl/pkg/failure"
)

type DatabaseErrorCause string

const (
	ErrCauseConnection  DatabaseErrorCause = "connection"
	ErrCauseQuery       DatabaseErrorCause = "query"
	ErrCauseCommit      DatabaseErrorCause = "commit"
	ErrCauseNotFound    DatabaseErrorCause = "not found"
	ErrCauseConstraint  DatabaseErrorCause = "constraint violation"
)

type DatabaseError struct {
	Message   string
	Retryable bool
	Cause     DatabaseErrorCause
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("store error: %s: %s", e.Cause, e.Message)
}

func (e *DatabaseError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *DatabaseError) IsRetryable() bool {
	return e.Retryable
}
