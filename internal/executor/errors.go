package executor

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrorKind classifies an execution failure for the caller-facing envelope.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindConflict      ErrorKind = "CONFLICT"
	KindForeignKey    ErrorKind = "FOREIGN_KEY_ERROR"
	KindDatabase      ErrorKind = "DATABASE_ERROR"
	KindExecution     ErrorKind = "EXECUTION_ERROR"
)

// ExecError is the only error type Execute returns. Driver errors are
// translated at the point of catch; messages never carry SQL text or
// credentials.
type ExecError struct {
	Kind    ErrorKind
	Message string
	err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecError) Unwrap() error { return e.err }

func notFound(format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// translateDBError maps a driver error onto the taxonomy. Postgres error
// codes: 23505 unique_violation, 23503 foreign_key_violation.
func translateDBError(err error, context string) *ExecError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return &ExecError{
				Kind:    KindConflict,
				Message: "unique constraint violation",
				err:     err,
			}
		case "23503":
			return &ExecError{
				Kind:    KindForeignKey,
				Message: "operation violates a foreign key constraint",
				err:     err,
			}
		}
	}
	return &ExecError{
		Kind:    KindDatabase,
		Message: fmt.Sprintf("database %s failed", context),
		err:     err,
	}
}
