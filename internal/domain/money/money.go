package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Scale 金額の小数点以下桁数
	Scale int32 = 2
)

var (
	// Zero 0円
	Zero = decimal.Zero
	// MaxAmount 1回の操作で扱える最大金額 (10兆)
	MaxAmount = decimal.New(10_000_000_000_000, 0)
)

// Round 小数点以下2桁に丸める（round half up）
// 金額は永続化・比較の前に必ずこの関数を通す
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Parse 文字列を金額に変換して丸める
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Round(d), nil
}

// MustParse テスト用ヘルパー: Parseを呼び出し、エラーが発生した場合はpanicする
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum 金額の合計を丸めて返す
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round(total)
}

// Format 小数点以下2桁固定の文字列表現を返す
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(Scale)
}
