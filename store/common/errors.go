package common

import (
	"errors"
	"fmt"

	"github.com/darianmavgo/growlog/record"
)

// Error is the single error kind surfaced by a store. Every driver translates
// its native database error into one.
type Error struct {
	Code     int    // Numeric error code of the database, 0 if it has none
	Message  string // Human readable message
	SQLState string // Standard SQLSTATE, empty when the database has none
	Err      error  // Native driver error, if any
}

func (e *Error) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("store error %d (%s): %s", e.Code, e.SQLState, e.Message)
	}
	return fmt.Sprintf("store error %d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrong value count on row, same number and state a MySQL server reports.
const (
	CodeWrongValueCount     = 1136
	SQLStateWrongValueCount = "21S01"
)

// RowError names the row of a batch that failed. Row is the index into the
// rows passed to InsertBatch.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return e.Err.Error() }

func (e *RowError) Unwrap() error { return e.Err }

// ErrNotFound is returned by Get when no row has the requested timestamp.
var ErrNotFound = errors.New("store: record not found")

// CheckFieldCount rejects a row whose field count does not match the log table.
func CheckFieldCount(fields []string) error {
	if len(fields) == record.FieldCount {
		return nil
	}
	return &Error{
		Code:     CodeWrongValueCount,
		Message:  fmt.Sprintf("Column count doesn't match value count at row 1 (got %d values, want %d)", len(fields), record.FieldCount),
		SQLState: SQLStateWrongValueCount,
	}
}

// AsError reports whether err is or wraps a store Error.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
