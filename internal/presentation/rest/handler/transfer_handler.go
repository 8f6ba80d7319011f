package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/domain/money"
)

// TransferRequest 振替リクエスト
type TransferRequest struct {
	FromUserID     int64                  `json:"from_user_id" example:"3"`
	ToUserID       int64                  `json:"to_user_id" example:"9"`
	Amount         string                 `json:"amount" example:"25.00"`
	OperationType  string                 `json:"operation_type" example:"P2P_TRANSFER"`
	Currency       string                 `json:"currency,omitempty"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
}

// TransferResponse 振替レスポンス
type TransferResponse struct {
	FromLogID         string `json:"from_log_id"`
	ToLogID           string `json:"to_log_id"`
	CorrelationID     string `json:"correlation_id"`
	FromBalanceBefore string `json:"from_balance_before"`
	FromBalanceAfter  string `json:"from_balance_after"`
	ToBalanceBefore   string `json:"to_balance_before"`
	ToBalanceAfter    string `json:"to_balance_after"`
	Idempotent        bool   `json:"idempotent"`
}

// TransferHandler 振替ハンドラー
type TransferHandler struct {
	ledgerService LedgerService
}

// NewTransferHandler 新しいTransferHandlerを作成
func NewTransferHandler(ledgerService LedgerService) *TransferHandler {
	return &TransferHandler{
		ledgerService: ledgerService,
	}
}

// Transfer 振替ハンドラー
// @Summary ユーザー間で振替
// @Description 2つの予算行をユーザーID昇順でロックし、OUT/INのエントリを同じcorrelation_idで記録します
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body TransferRequest true "振替リクエスト"
// @Success 200 {object} TransferResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /transfers [post]
func (h *TransferHandler) Transfer(c echo.Context) error {
	var reqBody TransferRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := parseAmount(reqBody.Amount)
	if err != nil {
		return err
	}

	resp, err := h.ledgerService.Transfer(c.Request().Context(), &ledgerapp.TransferRequest{
		FromUserID: reqBody.FromUserID,
		ToUserID:   reqBody.ToUserID,
		Amount:     amount,
		Operation: ledger.Operation{
			OperationType:  reqBody.OperationType,
			Currency:       reqBody.Currency,
			CorrelationID:  reqBody.CorrelationID,
			IdempotencyKey: reqBody.IdempotencyKey,
			Meta:           reqBody.Meta,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TransferResponse{
		FromLogID:         resp.FromLogID,
		ToLogID:           resp.ToLogID,
		CorrelationID:     resp.CorrelationID,
		FromBalanceBefore: money.Format(resp.FromBalanceBefore),
		FromBalanceAfter:  money.Format(resp.FromBalanceAfter),
		ToBalanceBefore:   money.Format(resp.ToBalanceBefore),
		ToBalanceAfter:    money.Format(resp.ToBalanceAfter),
		Idempotent:        resp.Idempotent,
	})
}
