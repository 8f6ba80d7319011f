package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-ledger/internal/domain/payout"
	"room-ledger/internal/domain/room"
)

// RoomRepository MySQL実装のRoomRepository
// ルーム・メンバー・リーダーボードはルームサービスの所有で、ここではステータスのみ更新する
type RoomRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewRoomRepository 新しいRoomRepositoryを作成
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{
		db:     db,
		tracer: otel.Tracer("room-repository"),
	}
}

// FindByID ルームを取得
func (r *RoomRepository) FindByID(ctx context.Context, roomID int64) (*room.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "rooms"),
	)

	query := `
		SELECT id, status, starting_cash, currency, payout_model
		FROM rooms
		WHERE id = ?
	`

	var (
		id           int64
		status       string
		startingCash decimal.Decimal
		currency     string
		payoutModel  string
	)
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(&id, &status, &startingCash, &currency, &payoutModel)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "room not found")
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	st, err := room.NewStatus(status)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct room: %w", err)
	}

	span.SetAttributes(attribute.String("db.status", status))
	span.SetStatus(otelcodes.Ok, "room found")
	// 未知の配当モデルはNewRoomでtieredになる
	return room.NewRoom(id, st, startingCash, currency, payout.Model(payoutModel)), nil
}

// FindMembers ルームの全メンバーを取得
func (r *RoomRepository) FindMembers(ctx context.Context, roomID int64) ([]*room.Member, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.FindMembers")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "room_members"),
	)

	query := `
		SELECT room_id, user_id, status
		FROM room_members
		WHERE room_id = ?
		ORDER BY user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query room members: %w", err)
	}
	defer rows.Close()

	var members []*room.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate room members: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows_returned", len(members)))
	span.SetStatus(otelcodes.Ok, "room members found")
	return members, nil
}

// FindMember 1メンバーを取得
func (r *RoomRepository) FindMember(ctx context.Context, roomID, userID int64) (*room.Member, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.FindMember")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.Int64("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "room_members"),
	)

	query := `
		SELECT room_id, user_id, status
		FROM room_members
		WHERE room_id = ? AND user_id = ?
	`

	m, err := scanMember(r.db.QueryRowContext(ctx, query, roomID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "member not found")
		return nil, room.ErrMemberNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "member found")
	return m, nil
}

func scanMember(row rowScanner) (*room.Member, error) {
	var (
		m      room.Member
		status string
	)
	if err := row.Scan(&m.RoomID, &m.UserID, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan room member: %w", err)
	}
	st, err := room.NewMemberStatus(status)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct room member: %w", err)
	}
	m.Status = st
	return &m, nil
}

// FindLeaderboard 確定リーダーボードを順位昇順で取得
func (r *RoomRepository) FindLeaderboard(ctx context.Context, roomID int64) ([]room.LeaderboardEntry, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.FindLeaderboard")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "room_leaderboards"),
	)

	query := `
		SELECT user_id, rank_position, pnl_abs, pnl_pct
		FROM room_leaderboards
		WHERE room_id = ?
		ORDER BY rank_position ASC, user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []room.LeaderboardEntry{}
	for rows.Next() {
		var e room.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Rank, &e.PnLAbs, &e.PnLPct); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows_returned", len(entries)))
	span.SetStatus(otelcodes.Ok, "leaderboard found")
	return entries, nil
}

// UpdateStatus ルームステータスを更新
func (r *RoomRepository) UpdateStatus(ctx context.Context, roomID int64, status room.Status) error {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.status", status.String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "rooms"),
	)

	query := `UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, status.String(), time.Now().UTC(), roomID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update room status: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "room status updated")
	return nil
}

// UpdateMemberStatus メンバーシップステータスを更新
func (r *RoomRepository) UpdateMemberStatus(ctx context.Context, roomID, userID int64, status room.MemberStatus) error {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.UpdateMemberStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.Int64("db.user_id", userID),
		attribute.String("db.status", status.String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "room_members"),
	)

	query := `UPDATE room_members SET status = ?, updated_at = ? WHERE room_id = ? AND user_id = ?`

	if _, err := r.db.ExecContext(ctx, query, status.String(), time.Now().UTC(), roomID, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update member status: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "member status updated")
	return nil
}

// CancelMemberships pending/activeのメンバーシップを全てcancelledにする
func (r *RoomRepository) CancelMemberships(ctx context.Context, roomID int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.CancelMemberships")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "room_members"),
	)

	query := `
		UPDATE room_members
		SET status = ?, updated_at = ?
		WHERE room_id = ? AND status IN (?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		room.MemberStatusCancelled.String(),
		time.Now().UTC(),
		roomID,
		room.MemberStatusPending.String(),
		room.MemberStatusActive.String(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to cancel memberships: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "memberships cancelled")
	return rowsAffected, nil
}
