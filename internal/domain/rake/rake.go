package rake

import (
	"time"

	"github.com/shopspring/decimal"

	"room-ledger/internal/domain/money"
)

// FeeType 手数料種別
type FeeType string

const (
	FeeTypePercentage FeeType = "percentage"
	FeeTypeFixed      FeeType = "fixed"
	// FeeTypeTiered 現状はpercentageと同じ計算
	FeeTypeTiered FeeType = "tiered"
)

var hundred = decimal.NewFromInt(100)

// NewFeeType 新しいFeeTypeを作成
func NewFeeType(s string) (FeeType, error) {
	t := FeeType(s)
	switch t {
	case FeeTypePercentage, FeeTypeFixed, FeeTypeTiered:
		return t, nil
	default:
		return "", ErrInvalidFeeType
	}
}

// String 文字列表現を返す
func (t FeeType) String() string {
	return string(t)
}

// Config レーキ設定（読み取り専用）
type Config struct {
	ID       int64
	FeeType  FeeType
	FeeValue decimal.Decimal
	MinPool  decimal.NullDecimal
	MaxPool  decimal.NullDecimal
}

// Applies プール額が設定の適用範囲内か判定する
func (c *Config) Applies(pool decimal.Decimal) bool {
	if c.MinPool.Valid && pool.LessThan(c.MinPool.Decimal) {
		return false
	}
	if c.MaxPool.Valid && pool.GreaterThan(c.MaxPool.Decimal) {
		return false
	}
	return true
}

// Calculate プール額と設定からレーキ額を計算する
// 設定がない、プールがマイナス、または適用範囲外の場合は0
// fixedはプールが0でも設定額をそのまま返す
func Calculate(pool decimal.Decimal, cfg *Config) decimal.Decimal {
	pool = money.Round(pool)
	if cfg == nil || pool.IsNegative() || !cfg.Applies(pool) {
		return money.Zero
	}

	switch cfg.FeeType {
	case FeeTypePercentage, FeeTypeTiered:
		if !pool.IsPositive() {
			return money.Zero
		}
		return money.Round(pool.Mul(cfg.FeeValue).Div(hundred))
	case FeeTypeFixed:
		return money.Round(cfg.FeeValue)
	default:
		return money.Zero
	}
}

// Collection ルームごとのレーキ徴収記録
type Collection struct {
	RoomID     int64
	PoolSize   decimal.Decimal
	RakeAmount decimal.Decimal
	ConfigID   *int64
	CreatedAt  time.Time
}

// NewCollection 新しいCollectionを作成
func NewCollection(roomID int64, pool, amount decimal.Decimal, cfg *Config) *Collection {
	c := &Collection{
		RoomID:     roomID,
		PoolSize:   money.Round(pool),
		RakeAmount: money.Round(amount),
		CreatedAt:  time.Now(),
	}
	if cfg != nil {
		id := cfg.ID
		c.ConfigID = &id
	}
	return c
}
