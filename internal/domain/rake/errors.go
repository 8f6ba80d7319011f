package rake

import "room-ledger/internal/domain/errcode"

var (
	// ErrConfigNotFound 有効なレーキ設定が存在しない
	ErrConfigNotFound = errcode.New("RAKE_CONFIG_NOT_FOUND", "rake config not found")
	// ErrCollectionNotFound レーキ徴収記録が存在しない
	ErrCollectionNotFound = errcode.New("RAKE_COLLECTION_NOT_FOUND", "rake collection not found")
	// ErrInvalidFeeType 無効な手数料種別
	ErrInvalidFeeType = errcode.New("VALIDATION_ERROR", "invalid fee type")
	// ErrInvalidPool 無効なプール額
	ErrInvalidPool = errcode.New("VALIDATION_ERROR", "invalid pool size")
)
