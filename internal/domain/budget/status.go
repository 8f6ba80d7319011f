package budget

import "fmt"

// Status 予算ステータスを表す値オブジェクト
type Status string

const (
	StatusActive Status = "active" // 利用可能
	StatusFrozen Status = "frozen" // 凍結中
)

// NewStatus 新しいStatusを作成
func NewStatus(s string) (Status, error) {
	switch s {
	case "active", "frozen":
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// String 文字列表現を返す
func (s Status) String() string {
	return string(s)
}

// Valid 有効なステータスかどうかを返す
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusFrozen
}
