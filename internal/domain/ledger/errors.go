package ledger

import "room-ledger/internal/domain/errcode"

var (
	// ErrEntryNotFound 台帳エントリが見つからないエラー
	ErrEntryNotFound = errcode.New("ENTRY_NOT_FOUND", "ledger entry not found")
	// ErrDuplicateIdempotencyKey 冪等キーが既に使用されているエラー（同時実行の競合）
	ErrDuplicateIdempotencyKey = errcode.New("DUPLICATE_IDEMPOTENCY_KEY", "duplicate idempotency key")
	// ErrInvalidOperation 操作パラメータが無効
	ErrInvalidOperation = errcode.New("VALIDATION_ERROR", "invalid operation")
	// ErrInvalidDirection 方向が無効
	ErrInvalidDirection = errcode.New("VALIDATION_ERROR", "invalid direction")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errcode.New("VALIDATION_ERROR", "invalid amount")
	// ErrSameAccountTransfer 同一ユーザー間の振替
	ErrSameAccountTransfer = errcode.New("VALIDATION_ERROR", "cannot transfer to the same user")
)
