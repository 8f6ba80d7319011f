package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/trace/noop"

	"room-ledger/internal/bootstrap"
	"room-ledger/internal/cli"
	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

func main() {
	root := cli.NewRootCommand(connect)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// connect サーバーと同じ設定でアプリケーションサービスを組み立てる
// CLIはトレースを送らず、ログは標準エラー出力に出す
func connect(ctx context.Context) (*cli.Services, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("ledgerctl"), os.Stderr, otelinfra.ParseLogLevel(cfg.LogLevel))
	metrics, err := otelinfra.NewMetrics("ledgerctl")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app, err := bootstrap.New(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, nil, err
	}

	return &cli.Services{
		Ledger:       app.Ledger,
		Settlement:   app.Settlement,
		Cancellation: app.Cancellation,
		Migrator:     app.DB,
	}, app.Close, nil
}
