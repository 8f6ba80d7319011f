package room

import "context"

// RoomRepository ルームリポジトリインターフェース
// ルーム本体はルームサービスが所有し、ここではステータス更新のみ行う
type RoomRepository interface {
	// FindByID ルームを取得
	FindByID(ctx context.Context, roomID int64) (*Room, error)

	// FindMembers ルームの全メンバーを取得
	FindMembers(ctx context.Context, roomID int64) ([]*Member, error)

	// FindMember 1メンバーを取得
	FindMember(ctx context.Context, roomID, userID int64) (*Member, error)

	// FindLeaderboard 確定リーダーボードを順位昇順で取得
	FindLeaderboard(ctx context.Context, roomID int64) ([]LeaderboardEntry, error)

	// UpdateStatus ルームステータスを更新
	UpdateStatus(ctx context.Context, roomID int64, status Status) error

	// UpdateMemberStatus メンバーシップステータスを更新
	UpdateMemberStatus(ctx context.Context, roomID, userID int64, status MemberStatus) error

	// CancelMemberships pending/activeのメンバーシップを全てcancelledにする
	CancelMemberships(ctx context.Context, roomID int64) (int64, error)
}
