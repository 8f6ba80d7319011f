package room

import (
	"github.com/shopspring/decimal"

	"room-ledger/internal/domain/money"
	"room-ledger/internal/domain/payout"
)

// Room 精算・キャンセルに必要なルーム情報（ルームサービスが所有）
type Room struct {
	ID           int64
	Status       Status
	StartingCash decimal.Decimal
	Currency     string
	PayoutModel  payout.Model
}

// NewRoom 新しいRoomを作成
func NewRoom(id int64, status Status, startingCash decimal.Decimal, currency string, model payout.Model) *Room {
	if !model.Valid() {
		model = payout.ModelTiered
	}
	return &Room{
		ID:           id,
		Status:       status,
		StartingCash: money.Round(startingCash),
		Currency:     currency,
		PayoutModel:  model,
	}
}

// IsCompleted 完了状態かどうかを返す
func (r *Room) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// EnsureNotStarted 開始前でなければエラーを返す
func (r *Room) EnsureNotStarted() error {
	if r.Status == StatusCancelled {
		return ErrRoomAlreadyCancelled
	}
	if !r.Status.NotStarted() {
		return ErrRoomAlreadyStarted
	}
	return nil
}

// TotalBuyIn 参加費の合計（startingCash × 参加人数）を返す
func (r *Room) TotalBuyIn(participantCount int) decimal.Decimal {
	return money.Round(r.StartingCash.Mul(decimal.NewFromInt(int64(participantCount))))
}

// Member ルームメンバーシップ
type Member struct {
	RoomID int64
	UserID int64
	Status MemberStatus
}

// LeaderboardEntry 確定したリーダーボードの1行
type LeaderboardEntry struct {
	UserID int64
	Rank   int
	PnLAbs decimal.Decimal
	PnLPct decimal.Decimal
}

// Standings 配当計算用の順位表に変換
func Standings(entries []LeaderboardEntry) []payout.Standing {
	standings := make([]payout.Standing, 0, len(entries))
	for _, e := range entries {
		standings = append(standings, payout.Standing{
			UserID: e.UserID,
			Rank:   e.Rank,
			PnLAbs: e.PnLAbs,
		})
	}
	return standings
}
