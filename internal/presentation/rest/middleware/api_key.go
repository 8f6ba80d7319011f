package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

// APIKeyHeader サービス間認証に使うヘッダー
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware サービス間APIキー認証ミドルウェア
// 台帳APIは内部サービス（ルーム・マッチング）からのみ呼ばれる
func APIKeyMiddleware(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	allowed := parseAllowedNetworks(cfg.AllowedIPs)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if !cfg.Enabled {
				logger.Warn(ctx, "Ledger API is disabled", nil)
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "FORBIDDEN",
					Message: "ledger API is disabled",
				})
			}

			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				logger.Warn(ctx, "Missing X-API-Key header", map[string]interface{}{
					"path": c.Request().URL.Path,
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "UNAUTHORIZED",
					Message: "missing X-API-Key header",
				})
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.APIKey)) != 1 {
				logger.Warn(ctx, "Invalid API key", map[string]interface{}{
					"path": c.Request().URL.Path,
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "UNAUTHORIZED",
					Message: "invalid API key",
				})
			}

			if len(allowed) > 0 {
				clientIP := c.RealIP()
				if !allowed.contains(clientIP) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					return c.JSON(http.StatusForbidden, ErrorResponse{
						Error:   "FORBIDDEN",
						Message: "IP address not allowed",
					})
				}
			}

			return next(c)
		}
	}
}

type networks []*net.IPNet

// parseAllowedNetworks 単一IPとCIDR表記を受け付ける（不正な値は無視）
func parseAllowedNetworks(entries []string) networks {
	var nets networks
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				continue
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		if _, n, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func (n networks) contains(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	for _, network := range n {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
