package cli

import (
	"context"

	"github.com/spf13/cobra"

	cancellationapp "room-ledger/internal/application/cancellation"
	"room-ledger/internal/domain/money"
)

type refundView struct {
	UserID     int64  `json:"user_id"`
	Amount     string `json:"amount"`
	LogID      string `json:"log_id,omitempty"`
	Idempotent bool   `json:"idempotent"`
	Error      string `json:"error,omitempty"`
}

func newRefundView(r cancellationapp.RefundResult) refundView {
	return refundView{
		UserID:     r.UserID,
		Amount:     money.Format(r.Amount),
		LogID:      r.LogID,
		Idempotent: r.Idempotent,
		Error:      r.Error,
	}
}

func newSettleCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "settle <room_id>",
		Short: "Settle a completed room (rake, payouts, credits)",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			roomID, err := parseID("room_id", args[0])
			if err != nil {
				return nil, err
			}
			r, err := svc.Settlement.SettleRoom(ctx, roomID)
			if err != nil {
				return nil, err
			}

			results := make([]map[string]interface{}, 0, len(r.Results))
			for _, u := range r.Results {
				item := map[string]interface{}{
					"user_id": u.UserID,
					"rank":    u.Rank,
					"amount":  money.Format(u.Amount),
					"status":  u.Status,
				}
				if u.Error != "" {
					item["error"] = u.Error
				}
				results = append(results, item)
			}
			return map[string]interface{}{
				"room_id":         r.RoomID,
				"correlation_id":  r.CorrelationID,
				"settled_count":   r.SettledCount,
				"failed_count":    r.FailedCount,
				"total_pool":      money.Format(r.TotalPool),
				"rake_amount":     money.Format(r.RakeAmount),
				"pool_after_rake": money.Format(r.PoolAfterRake),
				"results":         results,
			}, nil
		}),
	}
}

func newCancelCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <room_id>",
		Short: "Cancel a room that has not started and refund entry fees",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			roomID, err := parseID("room_id", args[0])
			if err != nil {
				return nil, err
			}
			r, err := svc.Cancellation.CancelRoom(ctx, roomID)
			if err != nil {
				return nil, err
			}
			refunds := make([]refundView, 0, len(r.Results))
			for _, res := range r.Results {
				refunds = append(refunds, newRefundView(res))
			}
			return map[string]interface{}{
				"room_id":               r.RoomID,
				"refunded_count":        r.RefundedCount,
				"failed_count":          r.FailedCount,
				"cancelled_memberships": r.CancelledMemberships,
				"results":               refunds,
			}, nil
		}),
	}
}

func newKickCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "kick <room_id> <user_id>",
		Short: "Remove a member from a room that has not started and refund the entry fee",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			roomID, err := parseID("room_id", args[0])
			if err != nil {
				return nil, err
			}
			userID, err := parseID("user_id", args[1])
			if err != nil {
				return nil, err
			}
			r, err := svc.Cancellation.KickMember(ctx, roomID, userID)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"room_id":  r.RoomID,
				"user_id":  r.UserID,
				"refunded": r.Refunded,
				"refund":   newRefundView(r.Refund),
			}, nil
		}),
	}
}

func newMigrateCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema (CREATE TABLE IF NOT EXISTS only)",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			applied, err := svc.Migrator.Migrate(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"applied_statements": applied}, nil
		}),
	}
}
