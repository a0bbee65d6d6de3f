package sqldb

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/webitel/form-exporter/internal/store"
)

// driver binds a database/sql driver name to its query dialect.
type driver struct {
	dialect store.Dialect
	// dsn normalizes the configured data source.
	dsn func(string) (string, error)
	// undefinedTable reports whether err means a missing relation.
	undefinedTable func(error) bool
}

var drivers = map[string]driver{
	"mysql": {
		dialect:        store.MySQL,
		dsn:            mysqlDSN,
		undefinedTable: mysqlUndefinedTable,
	},
	"sqlite3": {
		dialect:        store.SQLite,
		dsn:            func(dsn string) (string, error) { return dsn, nil },
		undefinedTable: sqliteUndefinedTable,
	},
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func mysqlUndefinedTable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146 // ER_NO_SUCH_TABLE
	}
	return false
}

func sqliteUndefinedTable(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrError && strings.Contains(liteErr.Error(), "no such table")
	}
	return false
}
