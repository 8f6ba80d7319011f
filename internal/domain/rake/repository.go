package rake

import (
	"context"
	"database/sql"
)

// RakeRepository レーキ設定・徴収記録リポジトリインターフェース
type RakeRepository interface {
	// FindActiveConfig 有効なレーキ設定を1件取得（なければErrConfigNotFound）
	FindActiveConfig(ctx context.Context) (*Config, error)

	// FindCollectionByRoomID ルームの徴収記録を取得（なければErrCollectionNotFound）
	FindCollectionByRoomID(ctx context.Context, tx *sql.Tx, roomID int64) (*Collection, error)

	// SaveCollection 徴収記録を保存
	SaveCollection(ctx context.Context, tx *sql.Tx, c *Collection) error
}
