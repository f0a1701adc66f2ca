// Package store holds the registry of database drivers and the scoped
// acquisition of a store connection.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/darianmavgo/growlog/store/common"
)

// Store is the connection handle passed to the importer.
type Store = common.Store

// Error is the store error surfaced to the caller.
type Error = common.Error

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]common.Driver)
)

// Register makes a store driver available by the provided name.
// If Register is called twice with the same name or if driver is nil, it panics.
func Register(name string, driver common.Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("store: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("store: Register called twice for driver " + name)
	}
	drivers[name] = driver
}

// Open acquires a store by driver name. The table name is sanitized first.
func Open(ctx context.Context, driverName, dsn, table string) (Store, error) {
	driversMu.RLock()
	driver, ok := drivers[driverName]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (forgotten import?)", driverName)
	}
	return driver.Open(ctx, dsn, common.TableName(table))
}

// With opens a store, hands it to fn and closes it on every exit path.
// A close error is only reported when fn itself succeeded.
func With(ctx context.Context, driverName, dsn, table string, fn func(Store) error) (err error) {
	st, err := Open(ctx, driverName, dsn, table)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close store: %w", cerr)
		}
	}()
	return fn(st)
}

// Drivers returns a sorted list of the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// IsRegistered reports whether a driver with the given name exists.
func IsRegistered(name string) bool {
	driversMu.RLock()
	defer driversMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// AsError reports whether err is or wraps a store Error.
func AsError(err error) (*Error, bool) {
	return common.AsError(err)
}

// ErrNotFound is returned by Store.Get for an unknown timestamp.
var ErrNotFound = common.ErrNotFound

