package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
	"room-ledger/internal/presentation/rest/handler"
	restmiddleware "room-ledger/internal/presentation/rest/middleware"
)

// Services ルーターが公開するアプリケーションサービス
type Services struct {
	Ledger       handler.LedgerService
	Settlement   handler.SettlementService
	Cancellation handler.CancellationService
	Health       handler.HealthChecker
}

// Router REST APIルーター
type Router struct {
	echo            *echo.Echo
	budgetHandler   *handler.BudgetHandler
	transferHandler *handler.TransferHandler
	roomHandler     *handler.RoomHandler
	healthHandler   *handler.HealthHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services Services,
) (*Router, error) {
	if services.Ledger == nil || services.Settlement == nil || services.Cancellation == nil || services.Health == nil {
		return nil, errors.New("all services are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// エラーはErrorHandlerMiddlewareでレスポンスに変換済み
	// ここに届くのはミドルウェアより外側（Recover等）のエラーのみ
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		logger.Error(c.Request().Context(), "Unhandled error", err, nil)
		_ = c.JSON(http.StatusInternalServerError, restmiddleware.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		})
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	r := &Router{
		echo:            e,
		budgetHandler:   handler.NewBudgetHandler(services.Ledger),
		transferHandler: handler.NewTransferHandler(services.Ledger),
		roomHandler:     handler.NewRoomHandler(services.Settlement, services.Cancellation),
		healthHandler:   handler.NewHealthHandler(services.Health),
	}

	// ルーティングの設定
	r.setupRoutes(cfg, logger)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定（許可オリジン未設定なら付与しない）
	if len(cfg.Server.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, restmiddleware.APIKeyHeader},
		}))
	}

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	if metrics != nil {
		e.Use(restmiddleware.MetricsMiddleware(metrics))
	}

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func (r *Router) setupRoutes(cfg *config.Config, logger *otelinfra.Logger) {
	// API v1グループ（サービス間APIキー必須）
	api := r.echo.Group("/api/v1", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))

	// 予算・台帳
	api.GET("/budgets/:user_id", r.budgetHandler.GetBudget)
	api.POST("/budgets/:user_id", r.budgetHandler.ProvisionBudget)
	api.PUT("/budgets/:user_id/status", r.budgetHandler.SetBudgetStatus)
	api.GET("/budgets/:user_id/entries", r.budgetHandler.GetEntries)
	api.POST("/budgets/:user_id/credit", r.budgetHandler.Credit)
	api.POST("/budgets/:user_id/debit", r.budgetHandler.Debit)
	api.POST("/budgets/:user_id/lock", r.budgetHandler.Lock)
	api.POST("/budgets/:user_id/unlock", r.budgetHandler.Unlock)
	api.POST("/budgets/:user_id/adjust", r.budgetHandler.Adjust)

	// 振替
	api.POST("/transfers", r.transferHandler.Transfer)

	// ルーム精算・キャンセル
	api.POST("/rooms/:room_id/settle", r.roomHandler.SettleRoom)
	api.POST("/rooms/:room_id/cancel", r.roomHandler.CancelRoom)
	api.POST("/rooms/:room_id/members/:user_id/kick", r.roomHandler.KickMember)

	// ヘルスチェックエンドポイント（認証不要）
	r.echo.GET("/health", r.healthHandler.Health)
}

// Handler テストや埋め込み用のhttp.Handler
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	err := r.echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
