package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	cancellationapp "room-ledger/internal/application/cancellation"
	ledgerapp "room-ledger/internal/application/ledger"
	rakeapp "room-ledger/internal/application/rake"
	settlementapp "room-ledger/internal/application/settlement"
	"room-ledger/internal/domain/room"
	"room-ledger/internal/infrastructure/config"
	"room-ledger/internal/infrastructure/lock/redislock"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
	"room-ledger/internal/infrastructure/persistence/mysql"
)

// App サーバーとCLIが共有する依存関係一式
type App struct {
	DB           *mysql.DB
	Ledger       *ledgerapp.LedgerApplicationService
	Rake         *rakeapp.RakeApplicationService
	Settlement   *settlementapp.SettlementApplicationService
	Cancellation *cancellationapp.CancellationApplicationService

	redis redis.UniversalClient
}

// New データベースに接続してアプリケーションサービスを組み立てる
func New(ctx context.Context, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) (*App, error) {
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	app, err := NewWithDB(ctx, cfg, db, logger, metrics)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// NewWithDB 接続済みのDBからアプリケーションサービスを組み立てる
// Redisが有効な場合のみ精算ガードをRedisで取る
func NewWithDB(ctx context.Context, cfg *config.Config, db *mysql.DB, logger *otelinfra.Logger, metrics *otelinfra.Metrics) (*App, error) {
	app := &App{DB: db}

	var guard room.SettlementGuard = room.NoopGuard{}
	if cfg.Redis.Enabled {
		rdb, err := redislock.Connect(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect settlement guard: %w", err)
		}
		app.redis = rdb
		guard = redislock.NewSettlementGuard(rdb, cfg.Ledger.SettlementLockTTL)
		logger.Info(ctx, "Settlement guard enabled", map[string]interface{}{
			"redis_addr": cfg.Redis.Address(),
			"ttl":        cfg.Ledger.SettlementLockTTL.String(),
		})
	}

	// リポジトリの初期化
	budgetRepo := mysql.NewBudgetRepository(db)
	entryRepo := mysql.NewLedgerEntryRepository(db)
	rakeRepo := mysql.NewRakeRepository(db)
	roomRepo := mysql.NewRoomRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// アプリケーションサービスの初期化
	app.Ledger = ledgerapp.NewLedgerApplicationService(
		budgetRepo,
		entryRepo,
		txManager,
		logger,
		metrics,
		&cfg.Ledger,
	)

	app.Rake = rakeapp.NewRakeApplicationService(
		rakeRepo,
		txManager,
		logger,
		metrics,
	)

	app.Settlement = settlementapp.NewSettlementApplicationService(
		roomRepo,
		app.Ledger,
		app.Rake,
		guard,
		logger,
		metrics,
	)

	app.Cancellation = cancellationapp.NewCancellationApplicationService(
		roomRepo,
		app.Ledger,
		logger,
		metrics,
	)

	return app, nil
}

// Close Redisとデータベースの接続を閉じる
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
