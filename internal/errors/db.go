package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// DBStatusError is implemented by every store error so callers can
// classify it without knowing the concrete type.
type DBStatusError interface {
	error
	StatusCode() codes.Code
}

type DBError struct {
	Op      string
	Message string
}

func NewDBError(op, msg string) *DBError {
	return &DBError{Op: op, Message: msg}
}

func (e *DBError) Error() string {
	return fmt.Sprintf("store.%s: %s", e.Op, e.Message)
}

func (e *DBError) StatusCode() codes.Code { return codes.Internal }

type DBInternalError struct {
	DBError
	Cause error
}

func NewDBInternalError(op string, cause error) *DBInternalError {
	msg := "internal error"
	if cause != nil {
		msg = cause.Error()
	}
	return &DBInternalError{DBError: *NewDBError(op, msg), Cause: cause}
}

func (e *DBInternalError) Unwrap() error { return e.Cause }

// DBSchemaError reports a relation that does not exist in the store, i.e.
// the forms plugin tables were never installed.
type DBSchemaError struct {
	DBError
	Table string
}

func NewDBSchemaError(op, table, msg string) *DBSchemaError {
	return &DBSchemaError{DBError: *NewDBError(op, msg), Table: table}
}

func (e *DBSchemaError) StatusCode() codes.Code { return codes.FailedPrecondition }
