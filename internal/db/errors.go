package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDupEntry is the MySQL server error number for a duplicate key.
const mysqlDupEntry = 1062

// IsDuplicateKey reports whether err is a unique-constraint violation from
// any supported driver.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}
	// sqlite surfaces constraint failures as plain messages when the
	// dialector does not translate them.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
