// Package postgres registers the "postgres" store driver on top of a single
// pgx connection.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/darianmavgo/growlog/record"
	"github.com/darianmavgo/growlog/store"
	"github.com/darianmavgo/growlog/store/common"
)

func init() {
	store.Register("postgres", &pgDriver{})
}

// Dialect describes the log table for PostgreSQL.
var Dialect = common.Dialect{
	Name:         "PostgreSQL",
	VersionQuery: "SHOW server_version",
	Placeholder:  common.DollarN,
	ColumnTypes: []string{
		fmt.Sprintf("BIGINT NOT NULL CHECK (timestamp BETWEEN 0 AND %d)", int64(record.MaxTimestamp)),
		"SMALLINT NOT NULL",
		"DOUBLE PRECISION NOT NULL",
		"DOUBLE PRECISION NOT NULL",
		"DOUBLE PRECISION NOT NULL",
		"DOUBLE PRECISION",
		"DOUBLE PRECISION",
	},
}

type pgDriver struct{}

func (d *pgDriver) Open(ctx context.Context, dsn string, table string) (common.Store, error) {
	return Open(ctx, dsn, table)
}

// Store is a common.Store backed by one *pgx.Conn.
type Store struct {
	conn  *pgx.Conn
	table string

	insertSQL string
	selectSQL string
	countSQL  string
}

// Ensure Store implements common.Store
var _ common.Store = (*Store)(nil)

// Open connects to the server named by dsn, a postgres:// URL or key=value string.
func Open(ctx context.Context, dsn string, table string) (*Store, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}

	s := &Store{table: table}
	if s.insertSQL, err = common.GenPreparedStmt(Dialect, table, record.Columns, common.InsertStmt); err != nil {
		return nil, err
	}
	if s.selectSQL, err = common.GenPreparedStmt(Dialect, table, record.Columns, common.SelectStmt); err != nil {
		return nil, err
	}
	if s.countSQL, err = common.GenPreparedStmt(Dialect, table, record.Columns, common.CountStmt); err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", Translate(err))
	}
	s.conn = conn
	return s, nil
}

// Name implements common.Store
func (s *Store) Name() string { return Dialect.Name }

// ServerInfo implements common.Store
func (s *Store) ServerInfo(ctx context.Context) (string, error) {
	var version string
	if err := s.conn.QueryRow(ctx, Dialect.VersionQuery).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", Translate(err))
	}
	return version, nil
}

// CreateTable implements common.Store
func (s *Store) CreateTable(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, common.GenCreateTableSQL(Dialect, s.table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, Translate(err))
	}
	return nil
}

// Insert implements common.Store
func (s *Store) Insert(ctx context.Context, fields []string) (int64, error) {
	if err := common.CheckFieldCount(fields); err != nil {
		return 0, err
	}
	tag, err := s.conn.Exec(ctx, s.insertSQL, record.Args(fields)...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert row in table %s: %w", s.table, Translate(err))
	}
	return tag.RowsAffected(), nil
}

// InsertBatch implements common.Store. The rows are queued as one pgx.Batch
// inside a transaction.
func (s *Store) InsertBatch(ctx context.Context, rows [][]string) (int64, error) {
	for i, fields := range rows {
		if err := common.CheckFieldCount(fields); err != nil {
			return 0, &common.RowError{Row: i, Err: err}
		}
	}

	var affected int64
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, fields := range rows {
			batch.Queue(s.insertSQL, record.Args(fields)...)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range rows {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return &common.RowError{Row: i, Err: Translate(err)}
			}
			affected += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		var re *common.RowError
		if !errors.As(err, &re) {
			err = Translate(err)
		}
		return 0, fmt.Errorf("failed to insert batch in table %s: %w", s.table, err)
	}
	return affected, nil
}

// Get implements common.Store
func (s *Store) Get(ctx context.Context, timestamp int64) (*record.LogRecord, error) {
	var rec record.LogRecord
	err := s.conn.QueryRow(ctx, s.selectSQL, timestamp).Scan(rec.ScanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("timestamp %d: %w", timestamp, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read row from table %s: %w", s.table, Translate(err))
	}
	return &rec, nil
}

// Count implements common.Store
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRow(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in table %s: %w", s.table, Translate(err))
	}
	return n, nil
}

// Exec runs a statement that returns no rows.
func (s *Store) Exec(ctx context.Context, stmt string) error {
	if _, err := s.conn.Exec(ctx, stmt); err != nil {
		return Translate(err)
	}
	return nil
}

// Close implements common.Store
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close(context.Background())
	s.conn = nil
	return err
}

// Translate converts a *pgconn.PgError into a store Error. PostgreSQL has no
// numeric error code, only the SQLSTATE.
func Translate(err error) error {
	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return err
	}
	msg := pe.Message
	if pe.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, pe.Detail)
	}
	return &common.Error{
		Code:     0,
		Message:  msg,
		SQLState: pe.Code,
		Err:      err,
	}
}
