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

	"room-ledger/internal/domain/money"
	"room-ledger/internal/domain/rake"
)

// RakeRepository MySQL実装のRakeRepository
type RakeRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewRakeRepository 新しいRakeRepositoryを作成
func NewRakeRepository(db *DB) *RakeRepository {
	return &RakeRepository{
		db:     db,
		tracer: otel.Tracer("rake-repository"),
	}
}

// FindActiveConfig 有効なレーキ設定を取得（複数ある場合は最新）
func (r *RakeRepository) FindActiveConfig(ctx context.Context) (*rake.Config, error) {
	ctx, span := r.tracer.Start(ctx, "RakeRepository.FindActiveConfig")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "rake_configs"),
	)

	query := `
		SELECT id, fee_type, fee_value, min_pool, max_pool
		FROM rake_configs
		WHERE active = 1
		ORDER BY id DESC
		LIMIT 1
	`

	var (
		id       int64
		feeType  string
		feeValue decimal.Decimal
		minPool  decimal.NullDecimal
		maxPool  decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&id, &feeType, &feeValue, &minPool, &maxPool)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "no active rake config")
		return nil, rake.ErrConfigNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find rake config: %w", err)
	}

	ft, err := rake.NewFeeType(feeType)
	if err != nil {
		return nil, fmt.Errorf("invalid fee type %q: %w", feeType, err)
	}

	span.SetAttributes(
		attribute.Int64("db.rake_config_id", id),
		attribute.String("db.fee_type", feeType),
		attribute.String("db.fee_value", feeValue.String()),
	)
	span.SetStatus(otelcodes.Ok, "rake config found")

	return &rake.Config{
		ID:       id,
		FeeType:  ft,
		FeeValue: feeValue,
		MinPool:  minPool,
		MaxPool:  maxPool,
	}, nil
}

// FindCollectionByRoomID ルームの徴収記録を取得
func (r *RakeRepository) FindCollectionByRoomID(ctx context.Context, tx *sql.Tx, roomID int64) (*rake.Collection, error) {
	ctx, span := r.tracer.Start(ctx, "RakeRepository.FindCollectionByRoomID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", roomID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "rake_collections"),
	)

	query := `
		SELECT room_id, pool_size, rake_amount, rake_config_id, created_at
		FROM rake_collections
		WHERE room_id = ?
	`

	var (
		c        rake.Collection
		configID sql.NullInt64
	)
	err := r.db.conn(tx).QueryRowContext(ctx, query, roomID).Scan(
		&c.RoomID,
		&c.PoolSize,
		&c.RakeAmount,
		&configID,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "rake collection not found")
		return nil, rake.ErrCollectionNotFound
	}
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find rake collection: %w", err)
	}
	if configID.Valid {
		v := configID.Int64
		c.ConfigID = &v
	}

	span.SetStatus(otelcodes.Ok, "rake collection found")
	return &c, nil
}

// SaveCollection 徴収記録を保存（同じルームの2回目以降は何もしない）
func (r *RakeRepository) SaveCollection(ctx context.Context, tx *sql.Tx, c *rake.Collection) error {
	ctx, span := r.tracer.Start(ctx, "RakeRepository.SaveCollection")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.room_id", c.RoomID),
		attribute.String("db.pool_size", money.Format(c.PoolSize)),
		attribute.String("db.rake_amount", money.Format(c.RakeAmount)),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "rake_collections"),
	)

	query := `
		INSERT INTO rake_collections (room_id, pool_size, rake_amount, rake_config_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE room_id = room_id
	`

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.conn(tx).ExecContext(ctx, query,
		c.RoomID,
		money.Format(c.PoolSize),
		money.Format(c.RakeAmount),
		nullableInt64(c.ConfigID),
		createdAt.UTC(),
	)
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save rake collection: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "rake collection saved")
	return nil
}
