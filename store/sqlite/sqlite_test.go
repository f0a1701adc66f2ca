package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/darianmavgo/growlog/record"
	"github.com/darianmavgo/growlog/store"
	"github.com/darianmavgo/growlog/store/common"
)

func openTemp(t *testing.T) *common.SQLStore {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "growlog.db"), "log")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateTable(ctx))
	return s
}

func primary(code int) int { return code & 0xff }

func TestServerInfo(t *testing.T) {
	s := openTemp(t)
	version, err := s.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^3\.\d+\.\d+`, version)
	assert.Equal(t, "SQLite", s.Name())
}

func TestTimestampRange(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	top := strconv.FormatInt(record.MaxTimestamp, 10)
	_, err := s.Insert(ctx, []string{top, "0", "1", "2", "3", "", ""})
	require.NoError(t, err)

	over := strconv.FormatInt(record.MaxTimestamp+1, 10)
	_, err = s.Insert(ctx, []string{over, "0", "1", "2", "3", "", ""})
	se, ok := store.AsError(err)
	require.True(t, ok, "expected store error, got %v", err)
	assert.EqualValues(t, sqlite3.SQLITE_CONSTRAINT, primary(se.Code))
}

func TestInsertBatchNamesFailingRow(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.InsertBatch(ctx, [][]string{
		{"1", "0", "1", "2", "3", "4", "5"},
		{"2", "0", "1", "2", "3", "4", "5"},
		{"1", "0", "1", "2", "3", "4", "5"},
	})
	var re *common.RowError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, re.Row)
	_, ok := store.AsError(err)
	assert.True(t, ok)

	_, err = s.InsertBatch(ctx, [][]string{
		{"1", "0", "1", "2", "3", "4", "5"},
		{"2", "0", "1"},
	})
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Row)
}

func TestInsertAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	n, err := s.Insert(ctx, []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	rec, err := s.Get(ctx, 1700000000)
	require.NoError(t, err)
	assert.EqualValues(t, 1700000000, rec.Timestamp)
	assert.EqualValues(t, 1, rec.State)
	assert.Equal(t, 21.5, rec.Temp)
	assert.Equal(t, 45.2, rec.Humidity)
	assert.Equal(t, 18.3, rec.AmbientTemp)
	require.NotNil(t, rec.AmbientHumidity)
	assert.Equal(t, 50.1, *rec.AmbientHumidity)
	require.NotNil(t, rec.ControlRoomTemp)
	assert.Equal(t, 22.0, *rec.ControlRoomTemp)
}

func TestInsertNullableEmpty(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.Insert(ctx, []string{"1700000060", "0", "21.4", "45.0", "18.2", "", ""})
	require.NoError(t, err)

	rec, err := s.Get(ctx, 1700000060)
	require.NoError(t, err)
	assert.Nil(t, rec.AmbientHumidity)
	assert.Nil(t, rec.ControlRoomTemp)
}

func TestInsertDuplicateTimestamp(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	line := []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0"}
	_, err := s.Insert(ctx, line)
	require.NoError(t, err)

	_, err = s.Insert(ctx, line)
	require.Error(t, err)
	se, ok := store.AsError(err)
	require.True(t, ok, "expected store error, got %T", err)
	assert.EqualValues(t, sqlite3.SQLITE_CONSTRAINT, primary(se.Code))
	assert.Empty(t, se.SQLState)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInsertRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
	}{
		{"non numeric temp", []string{"1700000000", "1", "warm", "45.2", "18.3", "50.1", "22.0"}},
		{"empty required", []string{"1700000000", "1", "", "45.2", "18.3", "50.1", "22.0"}},
		{"fractional state", []string{"1700000000", "1.5", "21.5", "45.2", "18.3", "50.1", "22.0"}},
		{"negative timestamp", []string{"-1", "1", "21.5", "45.2", "18.3", "50.1", "22.0"}},
		{"too few fields", []string{"1700000000", "1", "21.5"}},
		{"too many fields", []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0", "9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openTemp(t)

			_, err := s.Insert(ctx, tt.fields)
			require.Error(t, err)
			_, ok := store.AsError(err)
			assert.True(t, ok, "expected store error, got %v", err)

			count, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestInsertBatchAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	n, err := s.InsertBatch(ctx, [][]string{
		{"1", "0", "1", "2", "3", "4", "5"},
		{"2", "1", "1", "2", "3", "", ""},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.InsertBatch(ctx, [][]string{
		{"3", "0", "1", "2", "3", "4", "5"},
		{"1", "0", "1", "2", "3", "4", "5"},
	})
	require.Error(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = s.Get(ctx, 3)
	assert.True(t, errors.Is(err, store.ErrNotFound), "row of the failed batch must be rolled back")
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRegisteredDriver(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "registered.db")

	err := store.With(ctx, "sqlite", dsn, "log", func(st store.Store) error {
		if err := st.CreateTable(ctx); err != nil {
			return err
		}
		_, err := st.Insert(ctx, []string{"1", "0", "1", "2", "3", "4", "5"})
		return err
	})
	require.NoError(t, err)

	err = store.With(ctx, "sqlite", dsn, "log", func(st store.Store) error {
		n, err := st.Count(ctx)
		assert.EqualValues(t, 1, n)
		return err
	})
	require.NoError(t, err)
}
