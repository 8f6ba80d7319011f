package budget

import (
	"context"
	"database/sql"
)

// BudgetRepository 予算リポジトリインターフェース
// txがnilの場合はトランザクション外で実行する
type BudgetRepository interface {
	// FindByUserID ユーザーIDで予算を取得（ロックなし）
	FindByUserID(ctx context.Context, userID int64) (*Budget, error)

	// FindByUserIDForUpdate ユーザーIDで予算を行ロック付きで取得
	FindByUserIDForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*Budget, error)

	// Save 残高とステータスを保存
	Save(ctx context.Context, tx *sql.Tx, budget *Budget) error

	// Create 新しい予算を作成
	Create(ctx context.Context, tx *sql.Tx, budget *Budget) error
}
