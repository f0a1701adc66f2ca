package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/darianmavgo/growlog/record"
)

// TranslateFunc maps a native driver error onto a store Error. It returns
// the input unchanged when the error did not come from the database.
type TranslateFunc func(error) error

// SQLStore is a Store over database/sql that holds a single *sql.Conn for
// its whole lifetime.
type SQLStore struct {
	db        *sql.DB
	conn      *sql.Conn
	dialect   Dialect
	table     string
	translate TranslateFunc

	insertSQL  string
	selectSQL  string
	countSQL   string
	insertStmt *sql.Stmt
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)

// OpenSQL opens db with the given database/sql driver name and acquires one connection.
func OpenSQL(ctx context.Context, driverName, dsn, table string, d Dialect, translate TranslateFunc) (*SQLStore, error) {
	if translate == nil {
		translate = func(err error) error { return err }
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection for the whole run.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect: %w", translate(err))
	}

	s := &SQLStore{
		db:        db,
		conn:      conn,
		dialect:   d,
		table:     table,
		translate: translate,
	}
	if err := s.genStatements(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) genStatements() error {
	var err error
	if s.insertSQL, err = GenPreparedStmt(s.dialect, s.table, record.Columns, InsertStmt); err != nil {
		return fmt.Errorf("failed to generate insert statement: %w", err)
	}
	if s.selectSQL, err = GenPreparedStmt(s.dialect, s.table, record.Columns, SelectStmt); err != nil {
		return fmt.Errorf("failed to generate select statement: %w", err)
	}
	if s.countSQL, err = GenPreparedStmt(s.dialect, s.table, record.Columns, CountStmt); err != nil {
		return fmt.Errorf("failed to generate count statement: %w", err)
	}
	return nil
}

// Exec runs a statement that returns no rows on the held connection.
func (s *SQLStore) Exec(ctx context.Context, stmt string) error {
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to run %q: %w", stmt, s.translate(err))
	}
	return nil
}

// Name implements Store
func (s *SQLStore) Name() string { return s.dialect.Name }

// ServerInfo implements Store
func (s *SQLStore) ServerInfo(ctx context.Context) (string, error) {
	var version string
	if err := s.conn.QueryRowContext(ctx, s.dialect.VersionQuery).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", s.translate(err))
	}
	return version, nil
}

// CreateTable implements Store
func (s *SQLStore) CreateTable(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, GenCreateTableSQL(s.dialect, s.table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, s.translate(err))
	}
	return nil
}

// prepared returns the insert statement, preparing it on first use. The table
// may not exist before CreateTable, so it cannot be prepared on open.
func (s *SQLStore) prepared(ctx context.Context) (*sql.Stmt, error) {
	if s.insertStmt != nil {
		return s.insertStmt, nil
	}
	stmt, err := s.conn.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement for table %s: %w", s.table, s.translate(err))
	}
	s.insertStmt = stmt
	return stmt, nil
}

// Insert implements Store
func (s *SQLStore) Insert(ctx context.Context, fields []string) (int64, error) {
	if err := CheckFieldCount(fields); err != nil {
		return 0, err
	}
	stmt, err := s.prepared(ctx)
	if err != nil {
		return 0, err
	}
	res, err := stmt.ExecContext(ctx, record.Args(fields)...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert row in table %s: %w", s.table, s.translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 1, nil
	}
	return n, nil
}

// InsertBatch implements Store
func (s *SQLStore) InsertBatch(ctx context.Context, rows [][]string) (int64, error) {
	for i, fields := range rows {
		if err := CheckFieldCount(fields); err != nil {
			return 0, &RowError{Row: i, Err: err}
		}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", s.translate(err))
	}

	stmt, err := tx.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to prepare insert statement for table %s: %w", s.table, s.translate(err))
	}

	var affected int64
	for i, fields := range rows {
		res, err := stmt.ExecContext(ctx, record.Args(fields)...)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return 0, &RowError{Row: i, Err: fmt.Errorf("failed to insert row in table %s: %w", s.table, s.translate(err))}
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		} else {
			affected++
		}
	}

	stmt.Close() // Close statement before commit
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction for table %s: %w", s.table, s.translate(err))
	}
	return affected, nil
}

// Get implements Store
func (s *SQLStore) Get(ctx context.Context, timestamp int64) (*record.LogRecord, error) {
	var rec record.LogRecord
	err := s.conn.QueryRowContext(ctx, s.selectSQL, timestamp).Scan(rec.ScanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("timestamp %d: %w", timestamp, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read row from table %s: %w", s.table, s.translate(err))
	}
	return &rec, nil
}

// Count implements Store
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in table %s: %w", s.table, s.translate(err))
	}
	return n, nil
}

// Close implements Store
func (s *SQLStore) Close() error {
	var errs []error
	if s.insertStmt != nil {
		errs = append(errs, s.insertStmt.Close())
		s.insertStmt = nil
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	return errors.Join(errs...)
}
