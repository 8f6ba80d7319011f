package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RoomHandler ルーム精算・キャンセルハンドラー
type RoomHandler struct {
	settlementService   SettlementService
	cancellationService CancellationService
}

// NewRoomHandler 新しいRoomHandlerを作成
func NewRoomHandler(settlementService SettlementService, cancellationService CancellationService) *RoomHandler {
	return &RoomHandler{
		settlementService:   settlementService,
		cancellationService: cancellationService,
	}
}

// SettleRoom ルーム精算ハンドラー
// @Summary 完了したルームを精算
// @Description 一部ユーザーの入金に失敗してもルームはsettledになり、failed_countで確認できます
// @Tags room
// @Produce json
// @Param room_id path int true "ルームID"
// @Success 200 {object} SettlementResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /rooms/{room_id}/settle [post]
func (h *RoomHandler) SettleRoom(c echo.Context) error {
	roomID, err := pathID(c, "room_id")
	if err != nil {
		return err
	}

	resp, err := h.settlementService.SettleRoom(c.Request().Context(), roomID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newSettlementResponse(resp))
}

// CancelRoom ルームキャンセルハンドラー
// @Summary 開始前のルームをキャンセルして参加費を返金
// @Tags room
// @Produce json
// @Param room_id path int true "ルームID"
// @Success 200 {object} CancelResponse
// @Router /rooms/{room_id}/cancel [post]
func (h *RoomHandler) CancelRoom(c echo.Context) error {
	roomID, err := pathID(c, "room_id")
	if err != nil {
		return err
	}

	resp, err := h.cancellationService.CancelRoom(c.Request().Context(), roomID)
	if err != nil {
		return err
	}

	items := make([]RefundItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, newRefundItem(r))
	}

	return c.JSON(http.StatusOK, CancelResponse{
		RoomID:               resp.RoomID,
		RefundedCount:        resp.RefundedCount,
		FailedCount:          resp.FailedCount,
		CancelledMemberships: resp.CancelledMemberships,
		Results:              items,
	})
}

// KickMember キックハンドラー
// @Summary 開始前のルームからメンバーを外して返金
// @Tags room
// @Produce json
// @Param room_id path int true "ルームID"
// @Param user_id path int true "ユーザーID"
// @Success 200 {object} KickResponse
// @Router /rooms/{room_id}/members/{user_id}/kick [post]
func (h *RoomHandler) KickMember(c echo.Context) error {
	roomID, err := pathID(c, "room_id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	resp, err := h.cancellationService.KickMember(c.Request().Context(), roomID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, KickResponse{
		RoomID:   resp.RoomID,
		UserID:   resp.UserID,
		Refunded: resp.Refunded,
		Refund:   newRefundItem(resp.Refund),
	})
}
