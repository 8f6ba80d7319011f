package ledger

import (
	"context"
	"database/sql"
)

// Filter 台帳エントリ検索条件
type Filter struct {
	OperationType string
	RoomID        *int64
}

// EntryRepository 台帳エントリリポジトリインターフェース
type EntryRepository interface {
	// Save エントリを追記（冪等キー重複時はErrDuplicateIdempotencyKey）
	Save(ctx context.Context, tx *sql.Tx, entry *Entry) error

	// FindByIdempotencyKey 冪等キーでエントリを取得
	FindByIdempotencyKey(ctx context.Context, tx *sql.Tx, key string) (*Entry, error)

	// FindByUserID ユーザーIDでエントリ一覧を取得（ページネーション対応）
	FindByUserID(ctx context.Context, userID int64, filter Filter, limit, offset int) ([]*Entry, error)

	// CountByUserID 検索条件に一致するエントリ数を取得
	CountByUserID(ctx context.Context, userID int64, filter Filter) (int, error)
}
