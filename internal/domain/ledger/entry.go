package ledger

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"room-ledger/internal/domain/money"
)

// Entry 追記専用の台帳エントリ
// balanceBefore/balanceAfterは利用可能残高の変化を表す
type Entry struct {
	id                 string
	userID             int64
	direction          Direction
	operationType      string
	amount             decimal.Decimal
	currency           string
	balanceBefore      decimal.Decimal
	balanceAfter       decimal.Decimal
	counterpartyUserID *int64
	correlationID      *string
	idempotencyKey     *string
	roomID             *int64
	meta               map[string]interface{}
	createdAt          time.Time
}

// EntryParams Entry作成用パラメータ
type EntryParams struct {
	ID                 string
	UserID             int64
	Direction          Direction
	OperationType      string
	Amount             decimal.Decimal
	Currency           string
	BalanceBefore      decimal.Decimal
	BalanceAfter       decimal.Decimal
	CounterpartyUserID *int64
	CorrelationID      string
	IdempotencyKey     string
	Meta               map[string]interface{}
	CreatedAt          time.Time
}

// NewEntry 新しいEntryエンティティを作成
func NewEntry(p EntryParams) (*Entry, error) {
	if p.ID == "" || p.UserID <= 0 || p.OperationType == "" {
		return nil, ErrInvalidOperation
	}
	if !p.Direction.Valid() {
		return nil, ErrInvalidDirection
	}
	amount := money.Round(p.Amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Entry{
		id:                 p.ID,
		userID:             p.UserID,
		direction:          p.Direction,
		operationType:      p.OperationType,
		amount:             amount,
		currency:           p.Currency,
		balanceBefore:      money.Round(p.BalanceBefore),
		balanceAfter:       money.Round(p.BalanceAfter),
		counterpartyUserID: p.CounterpartyUserID,
		correlationID:      optionalString(p.CorrelationID),
		idempotencyKey:     optionalString(p.IdempotencyKey),
		roomID:             roomIDFromMeta(p.Meta),
		meta:               p.Meta,
		createdAt:          createdAt,
	}, nil
}

// ID エントリIDを返す
func (e *Entry) ID() string { return e.id }

// UserID ユーザーIDを返す
func (e *Entry) UserID() int64 { return e.userID }

// Direction 方向を返す
func (e *Entry) Direction() Direction { return e.direction }

// OperationType 業務上の操作種別を返す
func (e *Entry) OperationType() string { return e.operationType }

// Amount 金額を返す
func (e *Entry) Amount() decimal.Decimal { return e.amount }

// Currency 通貨コードを返す
func (e *Entry) Currency() string { return e.currency }

// BalanceBefore 処理前の利用可能残高を返す
func (e *Entry) BalanceBefore() decimal.Decimal { return e.balanceBefore }

// BalanceAfter 処理後の利用可能残高を返す
func (e *Entry) BalanceAfter() decimal.Decimal { return e.balanceAfter }

// CounterpartyUserID 相手ユーザーIDを返す
func (e *Entry) CounterpartyUserID() *int64 { return e.counterpartyUserID }

// CorrelationID 相関IDを返す
func (e *Entry) CorrelationID() *string { return e.correlationID }

// IdempotencyKey 冪等キーを返す
func (e *Entry) IdempotencyKey() *string { return e.idempotencyKey }

// RoomID メタデータから抽出したルームIDを返す
func (e *Entry) RoomID() *int64 { return e.roomID }

// Meta メタデータを返す
func (e *Entry) Meta() map[string]interface{} { return e.meta }

// CreatedAt 作成日時を返す
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// roomIDFromMeta meta["room_id"]を数値として取り出す
func roomIDFromMeta(meta map[string]interface{}) *int64 {
	raw, ok := meta["room_id"]
	if !ok {
		return nil
	}
	var id int64
	switch v := raw.(type) {
	case int64:
		id = v
	case int:
		id = int64(v)
	case float64:
		id = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		id = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		id = n
	default:
		return nil
	}
	return &id
}
