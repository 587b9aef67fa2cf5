// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing row, such
// as assigning a permission the principal already holds.
var ErrConflict = errors.New("conflict")

// ErrDuplicateUsername is returned when a username is already taken by a
// user or a coach.
var ErrDuplicateUsername = errors.New("username already exists")

// MySQL server error numbers.
const (
    errDupEntry     = 1062
    errNoReferenced = 1452
)

// isMySQLError reports whether err is a server error with the given number.
func isMySQLError(err error, number uint16) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == number
}

func isDuplicateKey(err error) bool { return isMySQLError(err, errDupEntry) }

func isMissingReference(err error) bool { return isMySQLError(err, errNoReferenced) }
