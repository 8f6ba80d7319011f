package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"room-ledger/internal/domain/errcode"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

const (
	codeValidation = "VALIDATION_ERROR"
	codeRetryable  = "RETRYABLE"
)

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// StatusForCode エラーコードからHTTPステータスを決める
func StatusForCode(code string) int {
	switch {
	case code == errcode.CodeInternal:
		return http.StatusInternalServerError
	case code == codeValidation:
		return http.StatusBadRequest
	case code == codeRetryable:
		return http.StatusServiceUnavailable
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	default:
		// 残高不足・凍結・ルーム状態などの業務エラー
		return http.StatusConflict
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// EchoのHTTPエラー（パラメータ不正・ルーティング）
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		kind := http.StatusText(httpErr.Code)
		if httpErr.Code == http.StatusBadRequest {
			kind = codeValidation
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   kind,
			Message: message,
		})
	}

	code := errcode.Code(err)
	status := StatusForCode(code)

	if status == http.StatusInternalServerError {
		// 予期しないエラーは詳細を返さない
		logger.Error(ctx, "Internal server error", err, map[string]interface{}{
			"path": c.Request().URL.Path,
		})
		return c.JSON(status, ErrorResponse{
			Error:   code,
			Message: "An unexpected error occurred",
		})
	}

	logger.Warn(ctx, "Request rejected", map[string]interface{}{
		"error":       err.Error(),
		"code":        code,
		"status_code": status,
		"path":        c.Request().URL.Path,
	})
	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
