package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	// Noopメータープロバイダーを使用
	otel.SetMeterProvider(noop.NewMeterProvider())

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)
	assert.NotNil(t, metrics)

	assert.NotNil(t, metrics.LedgerOperationCount)
	assert.NotNil(t, metrics.IdempotentReplayCount)
	assert.NotNil(t, metrics.LedgerAmount)
	assert.NotNil(t, metrics.SettlementCount)
	assert.NotNil(t, metrics.RefundCount)
	assert.NotNil(t, metrics.RakeCollected)
	assert.NotNil(t, metrics.RequestCount)
	assert.NotNil(t, metrics.ResponseTime)
	assert.NotNil(t, metrics.ErrorCount)
}

func TestMetrics_RecordNoop(t *testing.T) {
	otel.SetMeterProvider(noop.NewMeterProvider())

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// エラーが発生しないことを確認
	metrics.RecordLedgerOperation(ctx, "credit", "VIRTUAL", "ok", 100)
	metrics.RecordLedgerOperation(ctx, "debit", "VIRTUAL", "INSUFFICIENT_FUNDS", 100)
	metrics.RecordIdempotentReplay(ctx, "credit")
	metrics.RecordSettlement(ctx, "ok")
	metrics.RecordRefund(ctx, "cancellation", "failed")
	metrics.RecordRakeCollected(ctx, "percentage", 50)
	metrics.RecordRequest(ctx, "POST", "/api/v1/transfers")
	metrics.RecordResponseTime(ctx, "POST", "/api/v1/transfers", 0.012)
	metrics.RecordError(ctx, "http_409")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_RecordLedgerOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer otel.SetMeterProvider(noop.NewMeterProvider())

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordLedgerOperation(ctx, "credit", "VIRTUAL", "ok", 100)
	metrics.RecordLedgerOperation(ctx, "credit", "VIRTUAL", "ok", 50)
	metrics.RecordLedgerOperation(ctx, "debit", "VIRTUAL", "INSUFFICIENT_FUNDS", 10)

	got := collect(t, reader)

	ops, ok := got["ledger_operations_total"]
	require.True(t, ok)
	sum, ok := ops.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, sum.DataPoints, 2)

	// 失敗した操作は金額分布に含めない
	amounts, ok := got["ledger_operation_amount"]
	require.True(t, ok)
	hist, ok := amounts.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, float64(150), hist.DataPoints[0].Sum)
}

func TestMetrics_RecordRakeCollected(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer otel.SetMeterProvider(noop.NewMeterProvider())

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	metrics.RecordRakeCollected(context.Background(), "fixed", 25)
	metrics.RecordRakeCollected(context.Background(), "fixed", 25)

	got := collect(t, reader)
	rake, ok := got["rake_collected_total"]
	require.True(t, ok)
	sum, ok := rake.Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, float64(50), sum.DataPoints[0].Value)
}
