package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/ledger"
)

// BudgetHandler 予算・台帳関連ハンドラー
type BudgetHandler struct {
	ledgerService LedgerService
}

// NewBudgetHandler 新しいBudgetHandlerを作成
func NewBudgetHandler(ledgerService LedgerService) *BudgetHandler {
	return &BudgetHandler{
		ledgerService: ledgerService,
	}
}

// GetBudget 予算取得ハンドラー
// @Summary 予算を取得
// @Tags budget
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Success 200 {object} BudgetResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /budgets/{user_id} [get]
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	resp, err := h.ledgerService.GetCurrentBudget(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newBudgetResponse(resp))
}

// ProvisionBudget 予算作成ハンドラー
// @Summary 予算を作成
// @Tags budget
// @Accept json
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Param request body ProvisionRequest true "予算作成リクエスト"
// @Success 201 {object} BudgetResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /budgets/{user_id} [post]
func (h *BudgetHandler) ProvisionBudget(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	var reqBody ProvisionRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req := &ledgerapp.ProvisionRequest{
		UserID:   userID,
		Currency: reqBody.Currency,
	}
	if reqBody.InitialBalance != "" {
		initial, err := parseAmount(reqBody.InitialBalance)
		if err != nil {
			return err
		}
		req.InitialBalance = initial
	}

	resp, err := h.ledgerService.ProvisionBudget(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newBudgetResponse(resp))
}

// SetBudgetStatus 予算の凍結・凍結解除ハンドラー
// @Summary 予算ステータスを変更
// @Tags budget
// @Accept json
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Param request body StatusRequest true "ステータス"
// @Success 200 {object} BudgetResponse
// @Router /budgets/{user_id}/status [put]
func (h *BudgetHandler) SetBudgetStatus(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	var reqBody StatusRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.ledgerService.SetBudgetStatus(c.Request().Context(), userID, reqBody.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newBudgetResponse(resp))
}

// GetEntries 台帳エントリ一覧ハンドラー
// @Summary 台帳エントリを新しい順に取得
// @Tags budget
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Param operation_type query string false "操作種別"
// @Param room_id query int false "ルームID"
// @Param limit query int false "取得件数"
// @Param offset query int false "オフセット"
// @Success 200 {object} EntriesResponse
// @Router /budgets/{user_id}/entries [get]
func (h *BudgetHandler) GetEntries(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	req := &ledgerapp.EntriesRequest{
		UserID:        userID,
		OperationType: c.QueryParam("operation_type"),
		Limit:         limit,
		Offset:        offset,
	}
	if c.QueryParam("room_id") != "" {
		roomID, err := queryInt(c, "room_id")
		if err != nil {
			return err
		}
		id := int64(roomID)
		req.RoomID = &id
	}

	resp, err := h.ledgerService.GetLedgerEntries(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newEntriesResponse(resp))
}

// Credit 入金ハンドラー
// @Summary 利用可能残高に入金
// @Tags ledger
// @Accept json
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Param request body OperationRequest true "台帳操作"
// @Success 200 {object} MutationResponse
// @Router /budgets/{user_id}/credit [post]
func (h *BudgetHandler) Credit(c echo.Context) error {
	return h.mutate(c, h.ledgerService.Credit)
}

// Debit 出金ハンドラー
// @Summary 利用可能残高から出金
// @Tags ledger
// @Accept json
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Param request body OperationRequest true "台帳操作"
// @Success 200 {object} MutationResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /budgets/{user_id}/debit [post]
func (h *BudgetHandler) Debit(c echo.Context) error {
	return h.mutate(c, h.ledgerService.Debit)
}

// Lock ロックハンドラー
// @Router /budgets/{user_id}/lock [post]
func (h *BudgetHandler) Lock(c echo.Context) error {
	return h.mutate(c, h.ledgerService.Lock)
}

// Unlock ロック解除ハンドラー
// @Router /budgets/{user_id}/unlock [post]
func (h *BudgetHandler) Unlock(c echo.Context) error {
	return h.mutate(c, h.ledgerService.Unlock)
}

// Adjust 管理者補正ハンドラー
// @Summary 方向を指定して残高を補正
// @Tags ledger
// @Accept json
// @Produce json
// @Param user_id path int true "ユーザーID"
// @Param request body AdjustRequest true "補正リクエスト"
// @Success 200 {object} MutationResponse
// @Router /budgets/{user_id}/adjust [post]
func (h *BudgetHandler) Adjust(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	var reqBody AdjustRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := parseAmount(reqBody.Amount)
	if err != nil {
		return err
	}

	resp, err := h.ledgerService.Adjust(c.Request().Context(), &ledgerapp.AdjustRequest{
		UserID:    userID,
		Amount:    amount,
		Direction: ledger.Direction(reqBody.Direction),
		Operation: reqBody.operation(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newMutationResponse(resp))
}

type mutationFunc func(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error)

func (h *BudgetHandler) mutate(c echo.Context, fn mutationFunc) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	var reqBody OperationRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := parseAmount(reqBody.Amount)
	if err != nil {
		return err
	}

	resp, err := fn(c.Request().Context(), &ledgerapp.MutationRequest{
		UserID:    userID,
		Amount:    amount,
		Operation: reqBody.operation(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newMutationResponse(resp))
}

func (r OperationRequest) operation() ledger.Operation {
	return ledger.Operation{
		OperationType:  r.OperationType,
		Currency:       r.Currency,
		CorrelationID:  r.CorrelationID,
		IdempotencyKey: r.IdempotencyKey,
		Meta:           r.Meta,
	}
}
