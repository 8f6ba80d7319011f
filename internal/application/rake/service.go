package rake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-ledger/internal/domain/money"
	"room-ledger/internal/domain/rake"
	"room-ledger/internal/domain/transaction"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

// RakeApplicationService レーキ徴収アプリケーションサービス
// 予算には触れず、徴収記録のみを書き込む
type RakeApplicationService struct {
	rakeRepo  rake.RakeRepository
	txManager transaction.TransactionManager
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
}

// NewRakeApplicationService 新しいRakeApplicationServiceを作成
func NewRakeApplicationService(
	rakeRepo rake.RakeRepository,
	txManager transaction.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *RakeApplicationService {
	return &RakeApplicationService{
		rakeRepo:  rakeRepo,
		txManager: txManager,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("rake-service"),
	}
}

// CollectRake 有効な設定でレーキを計算し、ルームごとに1回だけ記録する
// 既に記録済みのルームは記録済みの金額を返す
func (s *RakeApplicationService) CollectRake(ctx context.Context, roomID int64, pool decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "RakeApplicationService.CollectRake")
	defer span.End()

	pool = money.Round(pool)
	span.SetAttributes(
		attribute.Int64("room_id", roomID),
		attribute.String("pool", pool.String()),
	)

	if pool.IsNegative() {
		err := fmt.Errorf("%w: %s", rake.ErrInvalidPool, pool)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	cfg, err := s.rakeRepo.FindActiveConfig(ctx)
	if errors.Is(err, rake.ErrConfigNotFound) {
		s.logger.Debug(ctx, "No active rake config", map[string]interface{}{
			"room_id": roomID,
		})
		return money.Zero, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to load rake config", err, map[string]interface{}{
			"room_id": roomID,
		})
		return decimal.Zero, fmt.Errorf("failed to load rake config: %w", err)
	}

	amount := rake.Calculate(pool, cfg)

	recorded := false
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := s.rakeRepo.FindCollectionByRoomID(ctx, tx, roomID)
		if err == nil {
			amount = existing.RakeAmount
			return nil
		}
		if !errors.Is(err, rake.ErrCollectionNotFound) {
			return err
		}
		if err := s.rakeRepo.SaveCollection(ctx, tx, rake.NewCollection(roomID, pool, amount, cfg)); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to record rake collection", err, map[string]interface{}{
			"room_id": roomID,
			"amount":  money.Format(amount),
		})
		return decimal.Zero, fmt.Errorf("failed to record rake collection: %w", err)
	}

	span.SetAttributes(
		attribute.String("rake_amount", amount.String()),
		attribute.Bool("recorded", recorded),
	)

	if recorded {
		s.metrics.RecordRakeCollected(ctx, cfg.FeeType.String(), amount.InexactFloat64())
		s.logger.Info(ctx, "Rake collected", map[string]interface{}{
			"room_id":   roomID,
			"pool":      money.Format(pool),
			"amount":    money.Format(amount),
			"fee_type":  cfg.FeeType.String(),
			"config_id": cfg.ID,
		})
	}

	return amount, nil
}
