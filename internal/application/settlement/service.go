package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/errcode"
	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/domain/money"
	"room-ledger/internal/domain/payout"
	"room-ledger/internal/domain/room"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

// OperationTypeSettlementWin 精算配当のoperationType
const OperationTypeSettlementWin = "ROOM_SETTLEMENT_WIN"

// Crediter 入金を行う台帳操作
type Crediter interface {
	Credit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)
}

// RakeCollector ルームのレーキ徴収
type RakeCollector interface {
	CollectRake(ctx context.Context, roomID int64, pool decimal.Decimal) (decimal.Decimal, error)
}

// SettlementApplicationService ルーム精算アプリケーションサービス
// ユーザーごとの入金は独立したトランザクションで、1件の失敗でループを止めない
type SettlementApplicationService struct {
	roomRepo room.RoomRepository
	ledger   Crediter
	rake     RakeCollector
	guard    room.SettlementGuard
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
	newID    func() string
}

// NewSettlementApplicationService 新しいSettlementApplicationServiceを作成
// guardがnilの場合はNoopGuardを使う
func NewSettlementApplicationService(
	roomRepo room.RoomRepository,
	ledger Crediter,
	rake RakeCollector,
	guard room.SettlementGuard,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *SettlementApplicationService {
	if guard == nil {
		guard = room.NoopGuard{}
	}
	return &SettlementApplicationService{
		roomRepo: roomRepo,
		ledger:   ledger,
		rake:     rake,
		guard:    guard,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("settlement-service"),
		newID:    uuid.NewString,
	}
}

// SettlementKey ユーザー・ルームごとの精算冪等キー
func SettlementKey(userID, roomID int64) string {
	return fmt.Sprintf("settlement-%d-%d", userID, roomID)
}

// SettleRoom 完了したルームを精算する
// レーキ徴収 → 配当計算 → ユーザーごとの入金 → ルームをsettledに更新
func (s *SettlementApplicationService) SettleRoom(ctx context.Context, roomID int64) (*SettlementResult, error) {
	ctx, span := s.tracer.Start(ctx, "SettlementApplicationService.SettleRoom")
	defer span.End()

	span.SetAttributes(attribute.Int64("room_id", roomID))

	release, err := s.guard.Acquire(ctx, roomID)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Warn(ctx, "Failed to release settlement guard", map[string]interface{}{
				"room_id": roomID,
				"error":   err.Error(),
			})
		}
	}()

	r, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, err)
	}
	if !r.IsCompleted() {
		return nil, s.reject(ctx, span, roomID, fmt.Errorf("%w: status is %s", room.ErrRoomNotCompleted, r.Status))
	}

	leaderboard, err := s.roomRepo.FindLeaderboard(ctx, roomID)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, fmt.Errorf("failed to load leaderboard: %w", err))
	}
	if len(leaderboard) == 0 {
		return nil, s.reject(ctx, span, roomID, room.ErrNoLeaderboard)
	}

	totalPool := r.TotalBuyIn(len(leaderboard))
	rakeAmount, err := s.rake.CollectRake(ctx, roomID, totalPool)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, err)
	}
	// fixedのレーキがプールを超える場合はプール全額まで
	if rakeAmount.GreaterThan(totalPool) {
		s.logger.Warn(ctx, "Rake exceeds pool, capping", map[string]interface{}{
			"room_id":    roomID,
			"rake":       money.Format(rakeAmount),
			"total_pool": money.Format(totalPool),
		})
		rakeAmount = totalPool
	}
	poolAfterRake := money.Round(totalPool.Sub(rakeAmount))

	payouts, err := payout.Calculate(room.Standings(leaderboard), poolAfterRake, r.PayoutModel)
	if err != nil {
		return nil, s.reject(ctx, span, roomID, err)
	}
	payouts = payout.AdjustForRounding(payouts, poolAfterRake)

	result := &SettlementResult{
		RoomID:        roomID,
		CorrelationID: fmt.Sprintf("room-%d-settlement-%s", roomID, s.newID()),
		TotalPool:     totalPool,
		RakeAmount:    rakeAmount,
		PoolAfterRake: poolAfterRake,
		Results:       make([]UserResult, 0, len(payouts)),
	}

	span.SetAttributes(
		attribute.String("correlation_id", result.CorrelationID),
		attribute.String("payout_model", r.PayoutModel.String()),
		attribute.Int("participant_count", len(leaderboard)),
		attribute.String("total_pool", totalPool.String()),
		attribute.String("rake_amount", rakeAmount.String()),
	)

	for _, p := range payouts {
		result.Results = append(result.Results, s.settleUser(ctx, r, p, result))
	}

	// 失敗したユーザーがいてもsettledにする（同じキーで再実行できる）
	if err := s.roomRepo.UpdateStatus(ctx, roomID, room.StatusSettled); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to mark room settled", err, map[string]interface{}{
			"room_id":       roomID,
			"settled_count": result.SettledCount,
			"failed_count":  result.FailedCount,
		})
		return result, fmt.Errorf("failed to mark room settled: %w", err)
	}

	span.SetAttributes(
		attribute.Int("settled_count", result.SettledCount),
		attribute.Int("failed_count", result.FailedCount),
	)
	s.logger.Info(ctx, "Room settled", map[string]interface{}{
		"room_id":         roomID,
		"correlation_id":  result.CorrelationID,
		"total_pool":      money.Format(totalPool),
		"rake_amount":     money.Format(rakeAmount),
		"pool_after_rake": money.Format(poolAfterRake),
		"settled_count":   result.SettledCount,
		"failed_count":    result.FailedCount,
	})

	return result, nil
}

// settleUser 1ユーザー分の入金（エラーは結果に記録して返す）
func (s *SettlementApplicationService) settleUser(ctx context.Context, r *room.Room, p payout.Payout, result *SettlementResult) UserResult {
	ur := UserResult{UserID: p.UserID, Rank: p.Rank, Amount: p.Amount}
	if !p.Amount.IsPositive() {
		ur.Status = StatusSkipped
		return ur
	}

	credited, err := s.ledger.Credit(ctx, &ledgerapp.MutationRequest{
		UserID: p.UserID,
		Amount: p.Amount,
		Operation: ledger.Operation{
			OperationType:  OperationTypeSettlementWin,
			Currency:       r.Currency,
			CorrelationID:  result.CorrelationID,
			IdempotencyKey: SettlementKey(p.UserID, r.ID),
			Meta: map[string]interface{}{
				"room_id":      r.ID,
				"rank":         p.Rank,
				"payout_model": r.PayoutModel.String(),
			},
		},
	})
	if err != nil {
		result.FailedCount++
		ur.Status = StatusFailed
		ur.Error = errcode.Code(err)
		s.metrics.RecordSettlement(ctx, StatusFailed)
		s.logger.Error(ctx, "Settlement credit failed", err, map[string]interface{}{
			"room_id": r.ID,
			"user_id": p.UserID,
			"rank":    p.Rank,
			"amount":  money.Format(p.Amount),
		})
		return ur
	}

	result.SettledCount++
	ur.LogID = credited.LogID
	ur.Status = StatusCredited
	if credited.Idempotent {
		ur.Status = StatusReplayed
	}
	s.metrics.RecordSettlement(ctx, ur.Status)
	return ur
}

// reject 精算開始前のエラーを記録
func (s *SettlementApplicationService) reject(ctx context.Context, span trace.Span, roomID int64, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	code := errcode.Code(err)
	fields := map[string]interface{}{
		"room_id": roomID,
		"code":    code,
	}
	if code == errcode.CodeInternal {
		s.logger.Error(ctx, "Settlement failed", err, fields)
	} else {
		s.logger.Warn(ctx, "Settlement rejected", fields)
	}
	return err
}
