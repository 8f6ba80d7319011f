package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"room-ledger/internal/domain/money"
)

// Model 配当モデル
type Model string

const (
	ModelWinnerTakeAll Model = "winner-take-all" // 1位が総取り
	ModelProportional  Model = "proportional"    // プラス損益に比例
	ModelTiered        Model = "tiered"          // 1〜3位に50/30/20、4位以下に返金プール
)

// DefaultTolerance Validateの既定許容誤差
var DefaultTolerance = decimal.RequireFromString("0.01")

var (
	refundPoolShare = decimal.RequireFromString("0.10")
	prizePoolShare  = decimal.RequireFromString("0.90")
	tierShares      = map[int]decimal.Decimal{
		1: decimal.RequireFromString("0.50"),
		2: decimal.RequireFromString("0.30"),
		3: decimal.RequireFromString("0.20"),
	}
)

// NewModel 新しいModelを作成
func NewModel(s string) (Model, error) {
	m := Model(s)
	if !m.Valid() {
		return "", fmt.Errorf("invalid payout model: %s", s)
	}
	return m, nil
}

// Valid 有効なモデルかどうかを返す
func (m Model) Valid() bool {
	return m == ModelWinnerTakeAll || m == ModelProportional || m == ModelTiered
}

// String 文字列表現を返す
func (m Model) String() string {
	return string(m)
}

// Standing 順位表の1行（順位昇順で渡される）
type Standing struct {
	UserID int64
	Rank   int
	PnLAbs decimal.Decimal
}

// Payout ユーザーごとの配当額
type Payout struct {
	UserID int64
	Rank   int
	Amount decimal.Decimal
}

// Calculate 順位表と配当プールからモデルに従って配当を計算する
// 各配当は丸め済みで、合計がtotalPoolと一致するとは限らない（AdjustForRoundingを参照）
func Calculate(standings []Standing, totalPool decimal.Decimal, model Model) ([]Payout, error) {
	totalPool = money.Round(totalPool)
	if totalPool.IsNegative() {
		return nil, fmt.Errorf("negative pool: %s", totalPool)
	}

	switch model {
	case ModelWinnerTakeAll:
		return winnerTakeAll(standings, totalPool), nil
	case ModelProportional:
		return proportional(standings, totalPool), nil
	case ModelTiered:
		return tiered(standings, totalPool), nil
	default:
		return nil, fmt.Errorf("invalid payout model: %s", model)
	}
}

func winnerTakeAll(standings []Standing, totalPool decimal.Decimal) []Payout {
	payouts := make([]Payout, 0, len(standings))
	for _, s := range standings {
		amount := decimal.Zero
		if s.Rank == 1 {
			amount = totalPool
		}
		payouts = append(payouts, Payout{UserID: s.UserID, Rank: s.Rank, Amount: amount})
	}
	return payouts
}

func proportional(standings []Standing, totalPool decimal.Decimal) []Payout {
	positiveSum := decimal.Zero
	for _, s := range standings {
		if s.PnLAbs.IsPositive() {
			positiveSum = positiveSum.Add(s.PnLAbs)
		}
	}

	payouts := make([]Payout, 0, len(standings))
	for _, s := range standings {
		amount := decimal.Zero
		if positiveSum.IsPositive() && s.PnLAbs.IsPositive() {
			amount = money.Round(totalPool.Mul(s.PnLAbs).Div(positiveSum))
		}
		payouts = append(payouts, Payout{UserID: s.UserID, Rank: s.Rank, Amount: amount})
	}
	return payouts
}

func tiered(standings []Standing, totalPool decimal.Decimal) []Payout {
	refundPool := totalPool.Mul(refundPoolShare)
	prizePool := totalPool.Mul(prizePoolShare)

	refundCount := 0
	for _, s := range standings {
		if s.Rank >= 4 {
			refundCount++
		}
	}

	payouts := make([]Payout, 0, len(standings))
	for _, s := range standings {
		amount := decimal.Zero
		if share, ok := tierShares[s.Rank]; ok {
			amount = money.Round(prizePool.Mul(share))
		} else if s.Rank >= 4 && refundCount > 0 {
			amount = money.Round(refundPool.Div(decimal.NewFromInt(int64(refundCount))))
		}
		payouts = append(payouts, Payout{UserID: s.UserID, Rank: s.Rank, Amount: amount})
	}
	return payouts
}

// ValidationResult 配当合計の検証結果
type ValidationResult struct {
	Sum        decimal.Decimal
	Difference decimal.Decimal
	Valid      bool
}

// Validate 配当合計とプールの差が許容誤差以内か検証する
func Validate(payouts []Payout, totalPool, tolerance decimal.Decimal) ValidationResult {
	sum := Total(payouts)
	diff := money.Round(totalPool).Sub(sum)
	return ValidationResult{
		Sum:        sum,
		Difference: diff,
		Valid:      diff.Abs().LessThanOrEqual(tolerance),
	}
}

// AdjustForRounding 丸め誤差を1位の配当に寄せて合計をtotalPoolに一致させる
// 1位がいなければ先頭の行に寄せる。入力は変更しない
func AdjustForRounding(payouts []Payout, totalPool decimal.Decimal) []Payout {
	adjusted := make([]Payout, len(payouts))
	copy(adjusted, payouts)
	if len(adjusted) == 0 {
		return adjusted
	}

	diff := money.Round(totalPool).Sub(Total(adjusted))
	if diff.IsZero() {
		return adjusted
	}

	target := 0
	for i, p := range adjusted {
		if p.Rank == 1 {
			target = i
			break
		}
	}
	adjusted[target].Amount = money.Round(adjusted[target].Amount.Add(diff))
	return adjusted
}

// Total 配当の合計を返す
func Total(payouts []Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}
	return money.Round(total)
}
