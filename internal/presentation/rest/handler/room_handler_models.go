package handler

import (
	cancellationapp "room-ledger/internal/application/cancellation"
	settlementapp "room-ledger/internal/application/settlement"
	"room-ledger/internal/domain/money"
)

// SettlementUserItem 1ユーザー分の精算結果
type SettlementUserItem struct {
	UserID int64  `json:"user_id"`
	Rank   int    `json:"rank"`
	Amount string `json:"amount"`
	LogID  string `json:"log_id,omitempty"`
	Status string `json:"status" enums:"credited,replayed,skipped,failed"`
	Error  string `json:"error,omitempty"`
}

// SettlementResponse ルーム精算レスポンス
type SettlementResponse struct {
	RoomID        int64                `json:"room_id"`
	CorrelationID string               `json:"correlation_id"`
	SettledCount  int                  `json:"settled_count"`
	FailedCount   int                  `json:"failed_count"`
	TotalPool     string               `json:"total_pool"`
	RakeAmount    string               `json:"rake_amount"`
	PoolAfterRake string               `json:"pool_after_rake"`
	Results       []SettlementUserItem `json:"results"`
}

func newSettlementResponse(r *settlementapp.SettlementResult) SettlementResponse {
	items := make([]SettlementUserItem, 0, len(r.Results))
	for _, u := range r.Results {
		items = append(items, SettlementUserItem{
			UserID: u.UserID,
			Rank:   u.Rank,
			Amount: money.Format(u.Amount),
			LogID:  u.LogID,
			Status: u.Status,
			Error:  u.Error,
		})
	}
	return SettlementResponse{
		RoomID:        r.RoomID,
		CorrelationID: r.CorrelationID,
		SettledCount:  r.SettledCount,
		FailedCount:   r.FailedCount,
		TotalPool:     money.Format(r.TotalPool),
		RakeAmount:    money.Format(r.RakeAmount),
		PoolAfterRake: money.Format(r.PoolAfterRake),
		Results:       items,
	}
}

// RefundItem 1メンバー分の返金結果
type RefundItem struct {
	UserID     int64  `json:"user_id"`
	Amount     string `json:"amount"`
	LogID      string `json:"log_id,omitempty"`
	Idempotent bool   `json:"idempotent"`
	Error      string `json:"error,omitempty"`
}

func newRefundItem(r cancellationapp.RefundResult) RefundItem {
	return RefundItem{
		UserID:     r.UserID,
		Amount:     money.Format(r.Amount),
		LogID:      r.LogID,
		Idempotent: r.Idempotent,
		Error:      r.Error,
	}
}

// CancelResponse ルームキャンセルレスポンス
type CancelResponse struct {
	RoomID               int64        `json:"room_id"`
	RefundedCount        int          `json:"refunded_count"`
	FailedCount          int          `json:"failed_count"`
	CancelledMemberships int64        `json:"cancelled_memberships"`
	Results              []RefundItem `json:"results"`
}

// KickResponse キックレスポンス
type KickResponse struct {
	RoomID   int64      `json:"room_id"`
	UserID   int64      `json:"user_id"`
	Refunded bool       `json:"refunded"`
	Refund   RefundItem `json:"refund"`
}
