package handler

import (
	"time"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/money"
)

// OperationRequest 台帳操作リクエスト（credit/debit/lock/unlock）
type OperationRequest struct {
	Amount         string                 `json:"amount" example:"100.00"`
	OperationType  string                 `json:"operation_type" example:"ROOM_ENTRY_FEE"`
	Currency       string                 `json:"currency,omitempty" example:"VIRTUAL"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty" example:"entry-fee-3-42"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
}

// AdjustRequest 管理者補正リクエスト
type AdjustRequest struct {
	OperationRequest
	Direction string `json:"direction" example:"IN" enums:"IN,OUT"`
}

// ProvisionRequest 予算作成リクエスト
type ProvisionRequest struct {
	Currency       string `json:"currency,omitempty" example:"VIRTUAL"`
	InitialBalance string `json:"initial_balance,omitempty" example:"1000.00"`
}

// StatusRequest 予算ステータス変更リクエスト
type StatusRequest struct {
	Status string `json:"status" example:"frozen" enums:"active,frozen"`
}

// MutationResponse 単一ユーザー操作のレスポンス
type MutationResponse struct {
	LogID         string `json:"log_id"`
	BalanceBefore string `json:"balance_before" example:"100.00"`
	BalanceAfter  string `json:"balance_after" example:"50.00"`
	Idempotent    bool   `json:"idempotent"`
}

func newMutationResponse(r *ledgerapp.MutationResult) MutationResponse {
	return MutationResponse{
		LogID:         r.LogID,
		BalanceBefore: money.Format(r.BalanceBefore),
		BalanceAfter:  money.Format(r.BalanceAfter),
		Idempotent:    r.Idempotent,
	}
}

// BudgetResponse 予算レスポンス
type BudgetResponse struct {
	UserID           int64     `json:"user_id" example:"3"`
	AvailableBalance string    `json:"available_balance" example:"1000.00"`
	LockedBalance    string    `json:"locked_balance" example:"0.00"`
	Currency         string    `json:"currency" example:"VIRTUAL"`
	Status           string    `json:"status" example:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newBudgetResponse(b *ledgerapp.BudgetResponse) BudgetResponse {
	return BudgetResponse{
		UserID:           b.UserID,
		AvailableBalance: money.Format(b.AvailableBalance),
		LockedBalance:    money.Format(b.LockedBalance),
		Currency:         b.Currency,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// EntryItem 台帳エントリ
type EntryItem struct {
	ID                 string                 `json:"id"`
	UserID             int64                  `json:"user_id"`
	Direction          string                 `json:"direction" example:"IN"`
	OperationType      string                 `json:"operation_type"`
	Amount             string                 `json:"amount"`
	Currency           string                 `json:"currency"`
	BalanceBefore      string                 `json:"balance_before"`
	BalanceAfter       string                 `json:"balance_after"`
	CounterpartyUserID *int64                 `json:"counterparty_user_id,omitempty"`
	CorrelationID      *string                `json:"correlation_id,omitempty"`
	IdempotencyKey     *string                `json:"idempotency_key,omitempty"`
	RoomID             *int64                 `json:"room_id,omitempty"`
	Meta               map[string]interface{} `json:"meta,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// EntriesResponse 台帳エントリ一覧レスポンス
type EntriesResponse struct {
	Entries []EntryItem `json:"entries"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

func newEntriesResponse(r *ledgerapp.EntriesResponse) EntriesResponse {
	items := make([]EntryItem, 0, len(r.Entries))
	for _, e := range r.Entries {
		items = append(items, EntryItem{
			ID:                 e.ID,
			UserID:             e.UserID,
			Direction:          e.Direction,
			OperationType:      e.OperationType,
			Amount:             money.Format(e.Amount),
			Currency:           e.Currency,
			BalanceBefore:      money.Format(e.BalanceBefore),
			BalanceAfter:       money.Format(e.BalanceAfter),
			CounterpartyUserID: e.CounterpartyUserID,
			CorrelationID:      e.CorrelationID,
			IdempotencyKey:     e.IdempotencyKey,
			RoomID:             e.RoomID,
			Meta:               e.Meta,
			CreatedAt:          e.CreatedAt,
		})
	}
	return EntriesResponse{
		Entries: items,
		Total:   r.Total,
		Limit:   r.Limit,
		Offset:  r.Offset,
	}
}
