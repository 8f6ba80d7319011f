package settlement

import "github.com/shopspring/decimal"

// 精算・返金の1ユーザー分の結果
const (
	StatusCredited = "credited" // 新規に入金
	StatusReplayed = "replayed" // 冪等キーにより既存の入金を返した
	StatusSkipped  = "skipped"  // 配当0
	StatusFailed   = "failed"   // 入金失敗（ループは継続）
)

// UserResult 1ユーザー分の精算結果
type UserResult struct {
	UserID int64
	Rank   int
	Amount decimal.Decimal
	LogID  string
	Status string
	Error  string
}

// SettlementResult ルーム精算の結果
// FailedCountが0でなくてもルームはsettledになる
type SettlementResult struct {
	RoomID        int64
	CorrelationID string
	SettledCount  int
	FailedCount   int
	TotalPool     decimal.Decimal
	RakeAmount    decimal.Decimal
	PoolAfterRake decimal.Decimal
	Results       []UserResult
}
