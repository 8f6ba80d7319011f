package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 台帳操作数（操作・結果別）
	LedgerOperationCount metric.Int64Counter

	// 冪等キーによる再実行の件数
	IdempotentReplayCount metric.Int64Counter

	// 台帳操作の金額分布（テレメトリ用途のみ）
	LedgerAmount metric.Float64Histogram

	// 精算のユーザー単位の結果
	SettlementCount metric.Int64Counter

	// キャンセル・キックの返金結果
	RefundCount metric.Int64Counter

	// 徴収したレーキ額
	RakeCollected metric.Float64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	ledgerOperationCount, err := meter.Int64Counter(
		"ledger_operations_total",
		metric.WithDescription("Total number of ledger operations"),
	)
	if err != nil {
		return nil, err
	}

	idempotentReplayCount, err := meter.Int64Counter(
		"ledger_idempotent_replays_total",
		metric.WithDescription("Total number of operations answered from an existing idempotency key"),
	)
	if err != nil {
		return nil, err
	}

	ledgerAmount, err := meter.Float64Histogram(
		"ledger_operation_amount",
		metric.WithDescription("Amount moved by ledger operations"),
	)
	if err != nil {
		return nil, err
	}

	settlementCount, err := meter.Int64Counter(
		"settlement_payouts_total",
		metric.WithDescription("Total number of per-user settlement payouts"),
	)
	if err != nil {
		return nil, err
	}

	refundCount, err := meter.Int64Counter(
		"room_refunds_total",
		metric.WithDescription("Total number of cancellation and kick refunds"),
	)
	if err != nil {
		return nil, err
	}

	rakeCollected, err := meter.Float64Counter(
		"rake_collected_total",
		metric.WithDescription("Total rake collected from settled rooms"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LedgerOperationCount:  ledgerOperationCount,
		IdempotentReplayCount: idempotentReplayCount,
		LedgerAmount:          ledgerAmount,
		SettlementCount:       settlementCount,
		RefundCount:           refundCount,
		RakeCollected:         rakeCollected,
		RequestCount:          requestCount,
		ResponseTime:          responseTime,
		ErrorCount:            errorCount,
	}, nil
}

// RecordLedgerOperation 台帳操作を記録
// resultは"ok"またはエラーコード
func (m *Metrics) RecordLedgerOperation(ctx context.Context, op, currency, result string, amount float64) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("currency", currency),
		attribute.String("result", result),
	)
	m.LedgerOperationCount.Add(ctx, 1, attrs)
	if result == "ok" {
		m.LedgerAmount.Record(ctx, amount, attrs)
	}
}

// RecordIdempotentReplay 冪等再実行を記録
func (m *Metrics) RecordIdempotentReplay(ctx context.Context, op string) {
	m.IdempotentReplayCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
		),
	)
}

// RecordSettlement 精算のユーザー単位の結果を記録
func (m *Metrics) RecordSettlement(ctx context.Context, result string) {
	m.SettlementCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}

// RecordRefund 返金結果を記録
func (m *Metrics) RecordRefund(ctx context.Context, reason, result string) {
	m.RefundCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("reason", reason),
			attribute.String("result", result),
		),
	)
}

// RecordRakeCollected 徴収したレーキ額を記録
func (m *Metrics) RecordRakeCollected(ctx context.Context, feeType string, amount float64) {
	m.RakeCollected.Add(ctx, amount,
		metric.WithAttributes(
			attribute.String("fee_type", feeType),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
