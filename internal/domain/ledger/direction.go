package ledger

import "fmt"

// Direction 台帳エントリの方向
type Direction string

const (
	DirectionIn     Direction = "IN"     // 入金
	DirectionOut    Direction = "OUT"    // 出金
	DirectionLock   Direction = "LOCK"   // 利用可能残高 → ロック残高
	DirectionUnlock Direction = "UNLOCK" // ロック残高 → 利用可能残高
)

// NewDirection 新しいDirectionを作成
func NewDirection(s string) (Direction, error) {
	switch s {
	case "IN", "OUT", "LOCK", "UNLOCK":
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid direction: %s", s)
	}
}

// String 文字列表現を返す
func (d Direction) String() string {
	return string(d)
}

// Valid 有効な方向かどうかを返す
func (d Direction) Valid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionLock, DirectionUnlock:
		return true
	}
	return false
}

// IsAdjustable adjust操作で指定可能な方向かどうかを返す
func (d Direction) IsAdjustable() bool {
	return d == DirectionIn || d == DirectionOut
}
