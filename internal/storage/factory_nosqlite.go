//go:build !sqlite

package storage

import "errors"

const sqliteAvailable = false

var errSQLiteUnavailable = errors.New("sqlite backend not compiled in; build with -tags sqlite")

func newSQLiteStore(string) (Store, error) {
	return nil, errSQLiteUnavailable
}
