package cancellation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/errcode"
	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/domain/money"
	"room-ledger/internal/domain/room"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

const (
	// OperationTypeCancellationRefund ルームキャンセル時の返金
	OperationTypeCancellationRefund = "ROOM_CANCELLATION_REFUND"
	// OperationTypeKickRefund キック時の返金
	OperationTypeKickRefund = "ROOM_KICK_REFUND"
)

// Crediter 入金を行う台帳操作
type Crediter interface {
	Credit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)
}

// RefundResult 1メンバー分の返金結果
type RefundResult struct {
	UserID     int64
	Amount     decimal.Decimal
	LogID      string
	Idempotent bool
	Error      string
}

// CancelResult ルームキャンセルの結果
type CancelResult struct {
	RoomID               int64
	RefundedCount        int
	FailedCount          int
	CancelledMemberships int64
	Results              []RefundResult
}

// KickResult キックの結果
type KickResult struct {
	RoomID   int64
	UserID   int64
	Refunded bool
	Refund   RefundResult
}

// CancellationApplicationService ルームキャンセル・キック返金アプリケーションサービス
type CancellationApplicationService struct {
	roomRepo room.RoomRepository
	ledger   Crediter
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
}

// NewCancellationApplicationService 新しいCancellationApplicationServiceを作成
func NewCancellationApplicationService(
	roomRepo room.RoomRepository,
	ledger Crediter,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CancellationApplicationService {
	return &CancellationApplicationService{
		roomRepo: roomRepo,
		ledger:   ledger,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("cancellation-service"),
	}
}

// CancellationKey ルームキャンセル返金の冪等キー
func CancellationKey(userID, roomID int64) string {
	return fmt.Sprintf("cancellation-%d-%d", userID, roomID)
}

// KickKey キック返金の冪等キー
func KickKey(userID, roomID int64) string {
	return fmt.Sprintf("kick-%d-%d", userID, roomID)
}

// CancelRoom 開始前のルームをキャンセルし、pending/activeのメンバー全員に参加費を返金する
// 個別の返金失敗ではループを止めない
func (s *CancellationApplicationService) CancelRoom(ctx context.Context, roomID int64) (*CancelResult, error) {
	ctx, span := s.tracer.Start(ctx, "CancellationApplicationService.CancelRoom")
	defer span.End()

	span.SetAttributes(attribute.Int64("room_id", roomID))

	r, err := s.loadNotStarted(ctx, span, roomID)
	if err != nil {
		return nil, err
	}

	members, err := s.roomRepo.FindMembers(ctx, roomID)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, fmt.Errorf("failed to load members: %w", err))
	}

	result := &CancelResult{RoomID: roomID, Results: make([]RefundResult, 0, len(members))}
	for _, m := range members {
		if !m.Status.Refundable() {
			continue
		}
		refund, err := s.refund(ctx, r, m.UserID, CancellationKey(m.UserID, roomID), OperationTypeCancellationRefund, "cancellation")
		if err != nil {
			result.FailedCount++
		} else {
			result.RefundedCount++
		}
		result.Results = append(result.Results, refund)
	}

	cancelled, err := s.roomRepo.CancelMemberships(ctx, roomID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to cancel memberships", err, map[string]interface{}{"room_id": roomID})
		return result, fmt.Errorf("failed to cancel memberships: %w", err)
	}
	result.CancelledMemberships = cancelled

	if err := s.roomRepo.UpdateStatus(ctx, roomID, room.StatusCancelled); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to mark room cancelled", err, map[string]interface{}{"room_id": roomID})
		return result, fmt.Errorf("failed to mark room cancelled: %w", err)
	}

	span.SetAttributes(
		attribute.Int("refunded_count", result.RefundedCount),
		attribute.Int("failed_count", result.FailedCount),
	)
	s.logger.Info(ctx, "Room cancelled", map[string]interface{}{
		"room_id":               roomID,
		"refunded_count":        result.RefundedCount,
		"failed_count":          result.FailedCount,
		"cancelled_memberships": cancelled,
	})

	return result, nil
}

// KickMember 開始前のルームから1メンバーを外し、参加費を返金する
// 返金に失敗した場合はメンバーシップを変更せずにエラーを返す
func (s *CancellationApplicationService) KickMember(ctx context.Context, roomID, userID int64) (*KickResult, error) {
	ctx, span := s.tracer.Start(ctx, "CancellationApplicationService.KickMember")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("room_id", roomID),
		attribute.Int64("user_id", userID),
	)

	r, err := s.loadNotStarted(ctx, span, roomID)
	if err != nil {
		return nil, err
	}

	m, err := s.roomRepo.FindMember(ctx, roomID, userID)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, err)
	}
	if !m.Status.Refundable() {
		return nil, s.reject(ctx, span, roomID, fmt.Errorf("%w: membership is %s", room.ErrMemberNotFound, m.Status))
	}

	refund, err := s.refund(ctx, r, userID, KickKey(userID, roomID), OperationTypeKickRefund, "kick")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.roomRepo.UpdateMemberStatus(ctx, roomID, userID, room.MemberStatusKicked); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to mark member kicked", err, map[string]interface{}{
			"room_id": roomID,
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to mark member kicked: %w", err)
	}

	s.logger.Info(ctx, "Member kicked", map[string]interface{}{
		"room_id": roomID,
		"user_id": userID,
		"amount":  money.Format(refund.Amount),
		"log_id":  refund.LogID,
	})

	return &KickResult{RoomID: roomID, UserID: userID, Refunded: true, Refund: refund}, nil
}

// loadNotStarted ルームを取得し、開始前であることを確認する
func (s *CancellationApplicationService) loadNotStarted(ctx context.Context, span trace.Span, roomID int64) (*room.Room, error) {
	r, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, err)
	}
	if err := r.EnsureNotStarted(); err != nil {
		return nil, s.reject(ctx, span, roomID, fmt.Errorf("%w: status is %s", err, r.Status))
	}
	return r, nil
}

// refund 参加費を1ユーザーへ返金する
func (s *CancellationApplicationService) refund(ctx context.Context, r *room.Room, userID int64, key, operationType, reason string) (RefundResult, error) {
	result := RefundResult{UserID: userID, Amount: r.StartingCash}

	credited, err := s.ledger.Credit(ctx, &ledgerapp.MutationRequest{
		UserID: userID,
		Amount: r.StartingCash,
		Operation: ledger.Operation{
			OperationType:  operationType,
			Currency:       r.Currency,
			IdempotencyKey: key,
			Meta: map[string]interface{}{
				"room_id": r.ID,
				"reason":  reason,
			},
		},
	})
	if err != nil {
		result.Error = errcode.Code(err)
		s.metrics.RecordRefund(ctx, reason, "failed")
		s.logger.Error(ctx, "Refund failed", err, map[string]interface{}{
			"room_id": r.ID,
			"user_id": userID,
			"reason":  reason,
			"amount":  money.Format(r.StartingCash),
		})
		return result, err
	}

	result.LogID = credited.LogID
	result.Idempotent = credited.Idempotent
	s.metrics.RecordRefund(ctx, reason, "ok")
	return result, nil
}

// reject 返金開始前のエラーを記録
func (s *CancellationApplicationService) reject(ctx context.Context, span trace.Span, roomID int64, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	code := errcode.Code(err)
	fields := map[string]interface{}{
		"room_id": roomID,
		"code":    code,
	}
	if code == errcode.CodeInternal {
		s.logger.Error(ctx, "Cancellation failed", err, fields)
	} else {
		s.logger.Warn(ctx, "Cancellation rejected", fields)
	}
	return err
}
