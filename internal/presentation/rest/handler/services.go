package handler

import (
	"context"

	cancellationapp "room-ledger/internal/application/cancellation"
	ledgerapp "room-ledger/internal/application/ledger"
	settlementapp "room-ledger/internal/application/settlement"
)

// LedgerService 台帳アプリケーションサービスのうちRESTで公開する操作
type LedgerService interface {
	Credit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)
	Debit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)
	Lock(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)
	Unlock(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)
	Adjust(ctx context.Context, req *ledgerapp.AdjustRequest) (*ledgerapp.MutationResult, error)
	Transfer(ctx context.Context, req *ledgerapp.TransferRequest) (*ledgerapp.TransferResult, error)
	ProvisionBudget(ctx context.Context, req *ledgerapp.ProvisionRequest) (*ledgerapp.BudgetResponse, error)
	SetBudgetStatus(ctx context.Context, userID int64, status string) (*ledgerapp.BudgetResponse, error)
	GetCurrentBudget(ctx context.Context, userID int64) (*ledgerapp.BudgetResponse, error)
	GetLedgerEntries(ctx context.Context, req *ledgerapp.EntriesRequest) (*ledgerapp.EntriesResponse, error)
}

// SettlementService ルーム精算
type SettlementService interface {
	SettleRoom(ctx context.Context, roomID int64) (*settlementapp.SettlementResult, error)
}

// CancellationService ルームキャンセル・キック返金
type CancellationService interface {
	CancelRoom(ctx context.Context, roomID int64) (*cancellationapp.CancelResult, error)
	KickMember(ctx context.Context, roomID, userID int64) (*cancellationapp.KickResult, error)
}

// HealthChecker 依存先の疎通確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
