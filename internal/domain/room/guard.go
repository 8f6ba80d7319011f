package room

import "context"

// ReleaseFunc 取得したリースを解放する
type ReleaseFunc func(ctx context.Context) error

// SettlementGuard 同じルームの精算が同時に走らないようにするリース
type SettlementGuard interface {
	// Acquire リースを取得（取得済みならErrSettlementInProgress）
	Acquire(ctx context.Context, roomID int64) (ReleaseFunc, error)
}

// NoopGuard 常に取得に成功するガード（Redis無効時）
type NoopGuard struct{}

// Acquire 何もせずに成功する
func (NoopGuard) Acquire(ctx context.Context, roomID int64) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
