package redislock

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-ledger/internal/domain/room"
)

//go:embed lua/release.lua
var luaRelease string

// SettlementGuard ルーム単位の精算リース（SET NX PX）
// 同じルームの精算が重ならないようにするだけで、金額の正しさは台帳のトランザクションが保証する
type SettlementGuard struct {
	rdb        redis.UniversalClient
	ttl        time.Duration
	scrRelease *redis.Script
	tracer     trace.Tracer
	newToken   func() string
}

// NewSettlementGuard 新しいSettlementGuardを作成
func NewSettlementGuard(rdb redis.UniversalClient, ttl time.Duration) *SettlementGuard {
	return &SettlementGuard{
		rdb:        rdb,
		ttl:        ttl,
		scrRelease: redis.NewScript(luaRelease),
		tracer:     otel.Tracer("settlement-guard"),
		newToken:   uuid.NewString,
	}
}

func lockKey(roomID int64) string {
	return "settlement-lock:{" + strconv.FormatInt(roomID, 10) + "}"
}

// Acquire リースを取得する。既に保持されている場合はErrSettlementInProgress
func (g *SettlementGuard) Acquire(ctx context.Context, roomID int64) (room.ReleaseFunc, error) {
	ctx, span := g.tracer.Start(ctx, "SettlementGuard.Acquire")
	defer span.End()

	key := lockKey(roomID)
	token := g.newToken()

	span.SetAttributes(
		attribute.Int64("room_id", roomID),
		attribute.String("redis.key", key),
		attribute.Int64("redis.ttl_ms", g.ttl.Milliseconds()),
	)

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to acquire settlement lease: %w", err)
	}
	if !ok {
		span.SetStatus(otelcodes.Error, "settlement in progress")
		return nil, room.ErrSettlementInProgress
	}

	span.SetStatus(otelcodes.Ok, "settlement lease acquired")

	return func(ctx context.Context) error {
		// 他の保持者のリースは消さない
		if err := g.scrRelease.Run(ctx, g.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release settlement lease: %w", err)
		}
		return nil
	}, nil
}
