// Package repository holds the database/sql data access for every table.
// Statements use `?` placeholders and portable SQL so the same code runs
// against MySQL in production and SQLite in tests.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a row
// owned by another member.  Handlers turn it into the not-owner response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when an email is already taken within the
// same principal space.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports a unique key violation on either driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
