package room

import "fmt"

// Status ルームステータス
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

// NewStatus 新しいStatusを作成
func NewStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusScheduled, StatusActive, StatusCompleted, StatusSettled, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid room status: %s", s)
	}
}

// String 文字列表現を返す
func (s Status) String() string {
	return string(s)
}

// NotStarted 開始前（draft/scheduled）かどうかを返す
func (s Status) NotStarted() bool {
	return s == StatusDraft || s == StatusScheduled
}

// MemberStatus メンバーシップステータス
type MemberStatus string

const (
	MemberStatusPending   MemberStatus = "pending"
	MemberStatusActive    MemberStatus = "active"
	MemberStatusKicked    MemberStatus = "kicked"
	MemberStatusCancelled MemberStatus = "cancelled"
	MemberStatusLeft      MemberStatus = "left"
)

// NewMemberStatus 新しいMemberStatusを作成
func NewMemberStatus(s string) (MemberStatus, error) {
	switch MemberStatus(s) {
	case MemberStatusPending, MemberStatusActive, MemberStatusKicked, MemberStatusCancelled, MemberStatusLeft:
		return MemberStatus(s), nil
	default:
		return "", fmt.Errorf("invalid member status: %s", s)
	}
}

// String 文字列表現を返す
func (s MemberStatus) String() string {
	return string(s)
}

// Refundable 返金対象（pending/active）かどうかを返す
func (s MemberStatus) Refundable() bool {
	return s == MemberStatusPending || s == MemberStatusActive
}
