package attendance

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
)

const (
	mysqlDuplicateEntry = 1062
	mysqlLockDeadlock   = 1213
)

// isRetryable reports whether a reconcile transaction lost a race against
// another writer and may be replayed: the unique index rejected our insert
// or InnoDB picked us as the deadlock victim.
func isRetryable(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry || mysqlErr.Number == mysqlLockDeadlock
	}
	return false
}
