package common

import (
	"context"

	"github.com/darianmavgo/growlog/record"
)

// Store is a single held connection to the database that keeps Log Records.
type Store interface {
	// Name is the display name of the database, e.g. "MySQL".
	Name() string
	// ServerInfo returns the server version string.
	ServerInfo(ctx context.Context) (string, error)
	// CreateTable creates the log table if it does not exist yet.
	CreateTable(ctx context.Context) error
	// Insert inserts one row in its own implicit transaction and returns the
	// number of affected rows.
	Insert(ctx context.Context, fields []string) (int64, error)
	// InsertBatch inserts rows in a single transaction. Either all rows are
	// committed or none are. A failure wraps a *RowError naming the row.
	InsertBatch(ctx context.Context, rows [][]string) (int64, error)
	// Get reads a record back by its timestamp.
	Get(ctx context.Context, timestamp int64) (*record.LogRecord, error)
	// Count returns the number of rows in the log table.
	Count(ctx context.Context) (int64, error)
	// Close releases the connection.
	Close() error
}

// Driver defines the interface that must be implemented by a store package.
type Driver interface {
	// Open acquires one connection to dsn, targeting the given table.
	Open(ctx context.Context, dsn string, table string) (Store, error)
}
