package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueFragment = "unique constraint failed"
)

// isDuplicateKey reports whether err is a unique index violation on any of
// the supported drivers. gorm only translates it when TranslateError is on.
func isDuplicateKey(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	}

	if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if myErr := new(mysql.MySQLError); errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(strings.ToLower(err.Error()), sqliteUniqueFragment)
}
