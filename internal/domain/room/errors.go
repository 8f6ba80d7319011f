package room

import "room-ledger/internal/domain/errcode"

var (
	// ErrRoomNotFound ルームが見つからないエラー
	ErrRoomNotFound = errcode.New("ROOM_NOT_FOUND", "room not found")
	// ErrRoomNotCompleted ルームが完了状態でないエラー
	ErrRoomNotCompleted = errcode.New("ROOM_NOT_COMPLETED", "room is not completed")
	// ErrRoomAlreadyStarted ルームが既に開始されているエラー
	ErrRoomAlreadyStarted = errcode.New("ROOM_ALREADY_STARTED", "room has already started")
	// ErrRoomAlreadyCancelled ルームが既にキャンセルされているエラー
	// ErrRoomAlreadyStartedの一種として扱われ、エラーコードも同じ
	ErrRoomAlreadyCancelled = errcode.Derive(ErrRoomAlreadyStarted, "room is already cancelled")
	// ErrMemberNotFound メンバーが見つからないエラー
	ErrMemberNotFound = errcode.New("MEMBER_NOT_FOUND", "member not found")
	// ErrNoLeaderboard リーダーボードが空のエラー
	ErrNoLeaderboard = errcode.New("NO_LEADERBOARD", "leaderboard is empty")
	// ErrSettlementInProgress 同じルームの精算が実行中のエラー
	ErrSettlementInProgress = errcode.New("SETTLEMENT_IN_PROGRESS", "settlement already in progress")
)
