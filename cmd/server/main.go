package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-ledger/internal/bootstrap"
	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
	"room-ledger/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("room-ledger")
	logger := otelinfra.NewLoggerWithWriter(tracer, os.Stderr, otelinfra.ParseLogLevel(cfg.LogLevel))
	metrics, err := otelinfra.NewMetrics("room-ledger")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	// データベース・Redis・アプリケーションサービスの初期化
	app, err := bootstrap.New(ctx, cfg, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Failed to close application: %v", err)
		}
	}()

	if cfg.Database.MigrateOnStart {
		applied, err := app.DB.Migrate(ctx)
		if err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info(ctx, "Database schema applied", map[string]interface{}{"statements": applied})
	}

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, rest.Services{
		Ledger:       app.Ledger,
		Settlement:   app.Settlement,
		Cancellation: app.Cancellation,
		Health:       app.DB,
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address":     address,
			"environment": cfg.Environment,
		})
		if err := router.Start(address); err != nil {
			logger.Error(ctx, "REST API server error", err, nil)
			quit <- syscall.SIGTERM
		}
	}()

	// シグナルを待機
	<-quit
	logger.Info(ctx, "Shutting down server", nil)

	// 処理中の精算・返金が終わるのを待つ
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down REST API server", err, nil)
	}

	logger.Info(ctx, "Server stopped", nil)
}
