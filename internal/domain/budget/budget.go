package budget

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"room-ledger/internal/domain/money"
)

// Budget ユーザーごとの予算エンティティ
// availableとlockedはそれぞれ独立して0以上を保つ
type Budget struct {
	userID    int64
	available decimal.Decimal
	locked    decimal.Decimal
	currency  string
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

// NewBudget 新しいBudgetエンティティを作成
func NewBudget(userID int64, available, locked decimal.Decimal, currency string, status Status) (*Budget, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	available = money.Round(available)
	locked = money.Round(locked)
	if available.IsNegative() || locked.IsNegative() {
		return nil, ErrBalanceOutOfRange
	}
	if !status.Valid() {
		status = StatusActive
	}
	now := time.Now()
	return &Budget{
		userID:    userID,
		available: available,
		locked:    locked,
		currency:  strings.ToUpper(currency),
		status:    status,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// UserID ユーザーIDを返す
func (b *Budget) UserID() int64 {
	return b.userID
}

// AvailableBalance 利用可能残高を返す
func (b *Budget) AvailableBalance() decimal.Decimal {
	return b.available
}

// LockedBalance ロック残高を返す
func (b *Budget) LockedBalance() decimal.Decimal {
	return b.locked
}

// Currency 通貨コードを返す
func (b *Budget) Currency() string {
	return b.currency
}

// Status ステータスを返す
func (b *Budget) Status() Status {
	return b.status
}

// CreatedAt 作成日時を返す
func (b *Budget) CreatedAt() time.Time {
	return b.createdAt
}

// UpdatedAt 更新日時を返す
func (b *Budget) UpdatedAt() time.Time {
	return b.updatedAt
}

// SetTimestamps 永続化層から読み込んだ日時を設定
func (b *Budget) SetTimestamps(createdAt, updatedAt time.Time) {
	b.createdAt = createdAt
	b.updatedAt = updatedAt
}

// IsActive 利用可能かどうかを返す
func (b *Budget) IsActive() bool {
	return b.status == StatusActive
}

// EnsureActive 凍結されていればErrBudgetFrozenを返す
func (b *Budget) EnsureActive() error {
	if !b.IsActive() {
		return ErrBudgetFrozen
	}
	return nil
}

// Credit 利用可能残高を増やす
// 丸めるのは加算後の残高で、実際に増えた金額を返す
func (b *Budget) Credit(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}
	after := money.Round(b.available.Add(amount))
	applied := after.Sub(b.available)
	if !applied.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	b.available = after
	b.touch()
	return applied, nil
}

// Debit 利用可能残高を減らす
// 丸めるのは減算後の残高で、実際に減った金額を返す
func (b *Budget) Debit(amount decimal.Decimal) (decimal.Decimal, error) {
	applied, after, err := take(b.available, amount, ErrInsufficientFunds)
	if err != nil {
		return decimal.Zero, err
	}
	b.available = after
	b.touch()
	return applied, nil
}

// Lock 利用可能残高からロック残高へ移動する
func (b *Budget) Lock(amount decimal.Decimal) (decimal.Decimal, error) {
	applied, after, err := take(b.available, amount, ErrInsufficientFunds)
	if err != nil {
		return decimal.Zero, err
	}
	b.available = after
	b.locked = b.locked.Add(applied)
	b.touch()
	return applied, nil
}

// Unlock ロック残高から利用可能残高へ戻す
func (b *Budget) Unlock(amount decimal.Decimal) (decimal.Decimal, error) {
	applied, after, err := take(b.locked, amount, ErrInsufficientLockedFunds)
	if err != nil {
		return decimal.Zero, err
	}
	b.locked = after
	b.available = b.available.Add(applied)
	b.touch()
	return applied, nil
}

// take balanceからamountを引いた残高を丸め、(移動額, 新残高)を返す
func take(balance, amount decimal.Decimal, insufficient error) (decimal.Decimal, decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	after := money.Round(balance.Sub(amount))
	if after.IsNegative() {
		return decimal.Zero, decimal.Zero, insufficient
	}
	applied := balance.Sub(after)
	if !applied.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	return applied, after, nil
}

// ChangeStatus ステータスを変更
func (b *Budget) ChangeStatus(status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	b.status = status
	b.touch()
	return nil
}

func (b *Budget) touch() {
	b.updatedAt = time.Now()
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(money.MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// MustNewBudget テスト用ヘルパー: NewBudgetを呼び出し、エラーが発生した場合はpanicする
func MustNewBudget(userID int64, available, locked string, currency string, status Status) *Budget {
	b, err := NewBudget(userID, decimal.RequireFromString(available), decimal.RequireFromString(locked), currency, status)
	if err != nil {
		panic(err)
	}
	return b
}
