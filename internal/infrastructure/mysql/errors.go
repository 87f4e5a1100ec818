package mysql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// IsDeadlock reports lock conflicts that are safe to retry with a fresh
// transaction.
func IsDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDeadlock || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}

// IsDuplicateKey reports a unique violation on the named index. An empty
// index name matches any duplicate.
func IsDuplicateKey(err error, index string) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != errDuplicateEntry {
		return false
	}
	if index == "" {
		return true
	}
	return strings.Contains(mysqlErr.Message, "'"+index+"'") ||
		strings.Contains(mysqlErr.Message, "."+index+"'")
}
