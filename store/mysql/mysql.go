// Package mysql registers the "mysql" store driver.
package mysql

import (
	"context"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/darianmavgo/growlog/store"
	"github.com/darianmavgo/growlog/store/common"
)

func init() {
	store.Register("mysql", &mysqlDriver{})
}

// Dialect describes the log table for MySQL. Floats are DOUBLE so a value
// reads back exactly as it was written.
var Dialect = common.Dialect{
	Name:         "MySQL",
	VersionQuery: "SELECT VERSION()",
	Placeholder:  common.QuestionMark,
	ColumnTypes: []string{
		"INT UNSIGNED NOT NULL",
		"TINYINT NOT NULL",
		"DOUBLE NOT NULL",
		"DOUBLE NOT NULL",
		"DOUBLE NOT NULL",
		"DOUBLE DEFAULT NULL",
		"DOUBLE DEFAULT NULL",
	},
	TableOptions: " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

type mysqlDriver struct{}

func (d *mysqlDriver) Open(ctx context.Context, dsn string, table string) (common.Store, error) {
	return Open(ctx, dsn, table)
}

// Open connects to the server named by dsn, e.g. "root@tcp(localhost:3306)/growlog".
// Unless the DSN says otherwise the session runs in strict mode, so a value
// that is not a number fails instead of being truncated with a warning.
func Open(ctx context.Context, dsn string, table string) (*common.SQLStore, error) {
	dsn, err := strictDSN(dsn)
	if err != nil {
		return nil, err
	}
	return common.OpenSQL(ctx, "mysql", dsn, table, Dialect, Translate)
}

func strictDSN(dsn string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["sql_mode"]; !ok {
		cfg.Params["sql_mode"] = "'STRICT_ALL_TABLES'"
	}
	return cfg.FormatDSN(), nil
}

// Translate converts a *mysql.MySQLError into a store Error carrying the
// server errno and SQLSTATE.
func Translate(err error) error {
	var me *gomysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	se := &common.Error{
		Code:    int(me.Number),
		Message: me.Message,
		Err:     err,
	}
	if me.SQLState != [5]byte{} {
		se.SQLState = string(me.SQLState[:])
	}
	return se
}
