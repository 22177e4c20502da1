package repository

import (
	"context"
	"errors"
	"fmt"

	"apexpay/internal/domain"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL server error numbers the store reacts to
const (
	mysqlDuplicateEntry   = 1062
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlockDetected = 1213
)

// classify maps driver errors onto the domain taxonomy so callers can tell
// a missing row from a lock conflict from a dead database.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlLockWaitTimeout, mysqlDeadlockDetected:
			return fmt.Errorf("%w: %v", domain.ErrContention, err)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

func isDuplicate(err error) bool {
	var myErr *mysqldrv.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
