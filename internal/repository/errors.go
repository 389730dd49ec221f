// Package repository implements the credential stores on MySQL.  Three
// independent lookup surfaces exist: users, delivery agents and seller
// profiles.  The sentinel values below let higher layers distinguish
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the lookup key.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert violates a unique email index.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
