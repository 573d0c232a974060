package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an update targeted an identity that does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConstraintViolation indicates a foreign-key, uniqueness or CHECK failure.
	ErrCodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrCodeTransactionFailure indicates a composite operation failed and was rolled back.
	ErrCodeTransactionFailure ErrorCode = "TRANSACTION_FAILURE"

	// ErrCodeStorageUnavailable indicates the database cannot be opened or accessed.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
)

// Error is returned by every Store operation that fails for a reason the
// caller can act on.
//
// Composite operations return a TRANSACTION_FAILURE whose Err is the
// sub-step error, so errors.Is matches both the composite failure and its
// cause.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the failed operation, e.g. "update project".
	Op string

	// Table is the table the failing statement touched, if any.
	Table string

	// Err is the underlying error.
	Err error
}

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrNotFound            = &Error{Code: ErrCodeNotFound}
	ErrConstraintViolation = &Error{Code: ErrCodeConstraintViolation}
	ErrTransactionFailure  = &Error{Code: ErrCodeTransactionFailure}
	ErrStorageUnavailable  = &Error{Code: ErrCodeStorageUnavailable}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Table != "" {
		msg += " (table=" + e.Table + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code, and other *Error values by code and op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}

// IsNotFound returns true if err is or wraps a NOT_FOUND error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraintViolation returns true if err is or wraps a CONSTRAINT_VIOLATION error.
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// IsTransactionFailure returns true if err is or wraps a TRANSACTION_FAILURE error.
func IsTransactionFailure(err error) bool {
	return errors.Is(err, ErrTransactionFailure)
}

// IsStorageUnavailable returns true if err is or wraps a STORAGE_UNAVAILABLE error.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// CodeOf returns the code of the outermost *Error in err's chain, or ""
// if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func notFound(op, table string, id int64) *Error {
	return &Error{
		Code:  ErrCodeNotFound,
		Op:    op,
		Table: table,
		Err:   fmt.Errorf("no row with id %d", id),
	}
}

func unavailable(op string, err error) *Error {
	return &Error{Code: ErrCodeStorageUnavailable, Op: op, Err: err}
}

// txFailure wraps a sub-step error of a composite operation.
func txFailure(op string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeTransactionFailure && e.Op == op {
		return err
	}
	return &Error{Code: ErrCodeTransactionFailure, Op: op, Err: err}
}

// classify maps a driver error onto the store taxonomy. Errors that fit
// no category are wrapped with the operation name only.
func classify(op, table string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return &Error{Code: ErrCodeConstraintViolation, Op: op, Table: table, Err: err}
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrIoErr,
			sqlite3.ErrCorrupt, sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrFull:
			return &Error{Code: ErrCodeStorageUnavailable, Op: op, Table: table, Err: err}
		}
	}

	if errors.Is(err, sql.ErrConnDone) {
		return &Error{Code: ErrCodeStorageUnavailable, Op: op, Table: table, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
