package transaction

import "room-ledger/internal/domain/errcode"

var (
	// ErrRetryable ロック待ちタイムアウトやデッドロックで中断された
	// 同じ冪等キーで再試行すれば安全
	ErrRetryable = errcode.New("RETRYABLE", "transaction aborted, retry with the same idempotency key")
)
