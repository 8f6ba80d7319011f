package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"room-ledger/internal/domain/budget"
	"room-ledger/internal/domain/ledger"
)

// MutationRequest credit/debit/lock/unlockのリクエスト
type MutationRequest struct {
	UserID    int64
	Amount    decimal.Decimal
	Operation ledger.Operation
}

// AdjustRequest 管理者による補正リクエスト
type AdjustRequest struct {
	UserID    int64
	Amount    decimal.Decimal
	Direction ledger.Direction
	Operation ledger.Operation
}

// TransferRequest 振替リクエスト
type TransferRequest struct {
	FromUserID int64
	ToUserID   int64
	Amount     decimal.Decimal
	Operation  ledger.Operation
}

// MutationResult 単一ユーザー操作の結果
// Idempotentがtrueの場合は既存エントリの値を返している
type MutationResult struct {
	LogID         string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Idempotent    bool
}

// TransferResult 振替の結果
type TransferResult struct {
	FromLogID         string
	ToLogID           string
	CorrelationID     string
	FromBalanceBefore decimal.Decimal
	FromBalanceAfter  decimal.Decimal
	ToBalanceBefore   decimal.Decimal
	ToBalanceAfter    decimal.Decimal
	Idempotent        bool
}

// ProvisionRequest 予算作成リクエスト
type ProvisionRequest struct {
	UserID         int64
	Currency       string
	InitialBalance decimal.Decimal
}

// BudgetResponse 予算のスナップショット
type BudgetResponse struct {
	UserID           int64
	AvailableBalance decimal.Decimal
	LockedBalance    decimal.Decimal
	Currency         string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func newBudgetResponse(b *budget.Budget) *BudgetResponse {
	return &BudgetResponse{
		UserID:           b.UserID(),
		AvailableBalance: b.AvailableBalance(),
		LockedBalance:    b.LockedBalance(),
		Currency:         b.Currency(),
		Status:           b.Status().String(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
}

// EntriesRequest 台帳エントリ一覧リクエスト
type EntriesRequest struct {
	UserID        int64
	OperationType string
	RoomID        *int64
	Limit         int
	Offset        int
}

// EntryResponse 台帳エントリ
type EntryResponse struct {
	ID                 string
	UserID             int64
	Direction          string
	OperationType      string
	Amount             decimal.Decimal
	Currency           string
	BalanceBefore      decimal.Decimal
	BalanceAfter       decimal.Decimal
	CounterpartyUserID *int64
	CorrelationID      *string
	IdempotencyKey     *string
	RoomID             *int64
	Meta               map[string]interface{}
	CreatedAt          time.Time
}

func newEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:                 e.ID(),
		UserID:             e.UserID(),
		Direction:          e.Direction().String(),
		OperationType:      e.OperationType(),
		Amount:             e.Amount(),
		Currency:           e.Currency(),
		BalanceBefore:      e.BalanceBefore(),
		BalanceAfter:       e.BalanceAfter(),
		CounterpartyUserID: e.CounterpartyUserID(),
		CorrelationID:      e.CorrelationID(),
		IdempotencyKey:     e.IdempotencyKey(),
		RoomID:             e.RoomID(),
		Meta:               e.Meta(),
		CreatedAt:          e.CreatedAt(),
	}
}

// EntriesResponse 台帳エントリ一覧レスポンス
type EntriesResponse struct {
	Entries []EntryResponse
	Total   int
	Limit   int
	Offset  int
}
