package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories care about.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrNoReferencedRow = 1452
)

// isDuplicateEntry reports whether err is a unique constraint violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

// isForeignKeyViolation reports whether err is a missing-parent-row failure.
func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrNoReferencedRow
}
