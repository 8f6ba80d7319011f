package cli

import (
	"context"

	cancellationapp "room-ledger/internal/application/cancellation"
	ledgerapp "room-ledger/internal/application/ledger"
	settlementapp "room-ledger/internal/application/settlement"
)

// LedgerService CLIが使う台帳操作
type LedgerService interface {
	GetCurrentBudget(ctx context.Context, userID int64) (*ledgerapp.BudgetResponse, error)
	GetLedgerEntries(ctx context.Context, req *ledgerapp.EntriesRequest) (*ledgerapp.EntriesResponse, error)
	Adjust(ctx context.Context, req *ledgerapp.AdjustRequest) (*ledgerapp.MutationResult, error)
	SetBudgetStatus(ctx context.Context, userID int64, status string) (*ledgerapp.BudgetResponse, error)
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

// Migrator スキーマ適用
type Migrator interface {
	Migrate(ctx context.Context) (int, error)
}

// Services コマンドが実行時に使うサービス一式
type Services struct {
	Ledger       LedgerService
	Settlement   SettlementService
	Cancellation CancellationService
	Migrator     Migrator
}

// Connector サービスを組み立てて、後始末の関数とともに返す
// --helpだけではDBに接続しないよう、コマンド実行時に呼ぶ
type Connector func(ctx context.Context) (*Services, func() error, error)
