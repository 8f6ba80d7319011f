package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler ヘルスチェックハンドラー
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health DBへの疎通を確認する
func (h *HealthHandler) Health(c echo.Context) error {
	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
