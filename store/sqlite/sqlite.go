// Package sqlite registers the "sqlite" store driver, backed by the pure Go
// modernc.org/sqlite database.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"

	"github.com/darianmavgo/growlog/record"
	"github.com/darianmavgo/growlog/store"
	"github.com/darianmavgo/growlog/store/common"
)

func init() {
	store.Register("sqlite", &sqliteDriver{})
}

// Dialect describes the log table for sqlite. The table is STRICT so text
// that is not a number is rejected instead of being stored as TEXT.
var Dialect = common.Dialect{
	Name:         "SQLite",
	VersionQuery: "SELECT sqlite_version()",
	Placeholder:  common.QuestionMark,
	ColumnTypes: []string{
		fmt.Sprintf("INTEGER NOT NULL CHECK (timestamp BETWEEN 0 AND %d)", int64(record.MaxTimestamp)),
		"INTEGER NOT NULL",
		"REAL NOT NULL",
		"REAL NOT NULL",
		"REAL NOT NULL",
		"REAL",
		"REAL",
	},
	TableOptions: " STRICT",
}

type sqliteDriver struct{}

func (d *sqliteDriver) Open(ctx context.Context, dsn string, table string) (common.Store, error) {
	return Open(ctx, dsn, table)
}

// Open opens the sqlite database file at dsn.
func Open(ctx context.Context, dsn string, table string) (*common.SQLStore, error) {
	return common.OpenSQL(ctx, "sqlite", dsn, table, Dialect, Translate)
}

// Translate converts a *sqlite.Error into a store Error. The code is the
// extended sqlite result code; sqlite has no SQLSTATE.
func Translate(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	return &common.Error{
		Code:    se.Code(),
		Message: se.Error(),
		Err:     err,
	}
}
