// Package sqldb uses an existing *sql.DB (PostgreSQL, MySQL) as the untrusted
// target, so the probe goes through the pool the service already has.
package sqldb

import (
	"database/sql"

	"github.com/BigKAA/apidown/apidown"
	"github.com/BigKAA/apidown/apidown/checks/mysqlcheck"
	"github.com/BigKAA/apidown/apidown/checks/pgcheck"
)

// CheckDB makes a PostgreSQL pool the untrusted target.
// A nil db makes apidown.New fail with apidown.ErrNilValidator.
func CheckDB(db *sql.DB, opts ...pgcheck.Option) apidown.Option {
	if db == nil {
		return apidown.CheckHealth(nil)
	}
	all := append([]pgcheck.Option{pgcheck.WithDB(db)}, opts...)
	return apidown.CheckHealth(pgcheck.New("", all...))
}

// CheckMySQLDB makes a MySQL pool the untrusted target.
// A nil db makes apidown.New fail with apidown.ErrNilValidator.
func CheckMySQLDB(db *sql.DB, opts ...mysqlcheck.Option) apidown.Option {
	if db == nil {
		return apidown.CheckHealth(nil)
	}
	all := append([]mysqlcheck.Option{mysqlcheck.WithDB(db)}, opts...)
	return apidown.CheckHealth(mysqlcheck.New("", all...))
}
