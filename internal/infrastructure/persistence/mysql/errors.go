package mysql

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"room-ledger/internal/domain/transaction"
)

// MySQLのエラー番号
const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// errorNumber MySQLのエラー番号を返す（MySQLエラーでなければ0）
func errorNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}

// isDuplicateEntry 一意制約違反かどうか
func isDuplicateEntry(err error) bool {
	return errorNumber(err) == errDuplicateEntry
}

// translateError ロック待ちタイムアウトとデッドロックをErrRetryableに変換する
func translateError(err error) error {
	switch errorNumber(err) {
	case errLockWaitTimeout, errDeadlock:
		return fmt.Errorf("%w: %w", transaction.ErrRetryable, err)
	default:
		return err
	}
}
