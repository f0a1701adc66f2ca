package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darianmavgo/growlog/store"
	"github.com/darianmavgo/growlog/store/common"
)

func TestTranslate(t *testing.T) {
	native := &gomysql.MySQLError{
		Number:   1062,
		SQLState: [5]byte{'2', '3', '0', '0', '0'},
		Message:  "Duplicate entry '1700000000' for key 'log.PRIMARY'",
	}
	err := Translate(fmt.Errorf("exec: %w", native))

	se, ok := store.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 1062, se.Code)
	assert.Equal(t, "23000", se.SQLState)
	assert.Contains(t, se.Message, "Duplicate entry")
	assert.True(t, errors.Is(err, native))
}

func TestTranslateNoSQLState(t *testing.T) {
	se, ok := store.AsError(Translate(&gomysql.MySQLError{Number: 2013, Message: "Lost connection"}))
	require.True(t, ok)
	assert.Empty(t, se.SQLState)
}

func TestTranslatePassThrough(t *testing.T) {
	other := errors.New("dial tcp: refused")
	assert.Same(t, other, Translate(other))
}

func TestStrictDSN(t *testing.T) {
	dsn, err := strictDSN("root@tcp(localhost:3306)/growlog")
	require.NoError(t, err)
	assert.Contains(t, dsn, "sql_mode=")

	dsn, err = strictDSN("root@tcp(localhost:3306)/growlog?sql_mode=ANSI")
	require.NoError(t, err)
	assert.Contains(t, dsn, "sql_mode=ANSI")
	assert.NotContains(t, dsn, "STRICT_ALL_TABLES")

	_, err = strictDSN("not a dsn")
	assert.Error(t, err)
}

func TestDDL(t *testing.T) {
	ddl := strings.ToUpper(common.GenCreateTableSQL(Dialect, "log"))
	assert.Contains(t, ddl, "TIMESTAMP INT UNSIGNED NOT NULL")
	assert.Contains(t, ddl, "ENGINE=INNODB")
}

// TestLiveServer runs against a real server when GROWLOG_TEST_MYSQL_DSN is set.
func TestLiveServer(t *testing.T) {
	dsn := os.Getenv("GROWLOG_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("GROWLOG_TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	table := fmt.Sprintf("log_test_%d", os.Getpid())

	s, err := Open(ctx, dsn, table)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateTable(ctx))
	defer s.Exec(ctx, "DROP TABLE "+table)

	_, err = s.Insert(ctx, []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0"})
	require.NoError(t, err)

	rec, err := s.Get(ctx, 1700000000)
	require.NoError(t, err)
	assert.Equal(t, 21.5, rec.Temp)

	_, err = s.Insert(ctx, []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0"})
	se, ok := store.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 1062, se.Code)
	assert.Equal(t, "23000", se.SQLState)

	_, err = s.Insert(ctx, []string{"1700000001", "1", "warm", "45.2", "18.3", "50.1", "22.0"})
	_, ok = store.AsError(err)
	assert.True(t, ok)
}
