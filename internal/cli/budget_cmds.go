package cli

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/domain/money"
)

type budgetView struct {
	UserID           int64  `json:"user_id"`
	AvailableBalance string `json:"available_balance"`
	LockedBalance    string `json:"locked_balance"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
}

func newBudgetView(b *ledgerapp.BudgetResponse) budgetView {
	return budgetView{
		UserID:           b.UserID,
		AvailableBalance: money.Format(b.AvailableBalance),
		LockedBalance:    money.Format(b.LockedBalance),
		Currency:         b.Currency,
		Status:           b.Status,
	}
}

func newBalanceCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user_id>",
		Short: "Show a user's budget",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			userID, err := parseID("user_id", args[0])
			if err != nil {
				return nil, err
			}
			b, err := svc.Ledger.GetCurrentBudget(ctx, userID)
			if err != nil {
				return nil, err
			}
			return newBudgetView(b), nil
		}),
	}
}

type entryView struct {
	ID             string  `json:"id"`
	Direction      string  `json:"direction"`
	OperationType  string  `json:"operation_type"`
	Amount         string  `json:"amount"`
	BalanceBefore  string  `json:"balance_before"`
	BalanceAfter   string  `json:"balance_after"`
	RoomID         *int64  `json:"room_id,omitempty"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func newEntriesCmd(run runner) *cobra.Command {
	var (
		operationType string
		roomID        int64
		limit         int
		offset        int
	)

	cmd := &cobra.Command{
		Use:   "entries <user_id>",
		Short: "List a user's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			userID, err := parseID("user_id", args[0])
			if err != nil {
				return nil, err
			}
			req := &ledgerapp.EntriesRequest{
				UserID:        userID,
				OperationType: operationType,
				Limit:         limit,
				Offset:        offset,
			}
			if roomID > 0 {
				req.RoomID = &roomID
			}

			resp, err := svc.Ledger.GetLedgerEntries(ctx, req)
			if err != nil {
				return nil, err
			}

			items := make([]entryView, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				items = append(items, entryView{
					ID:             e.ID,
					Direction:      e.Direction,
					OperationType:  e.OperationType,
					Amount:         money.Format(e.Amount),
					BalanceBefore:  money.Format(e.BalanceBefore),
					BalanceAfter:   money.Format(e.BalanceAfter),
					RoomID:         e.RoomID,
					IdempotencyKey: e.IdempotencyKey,
					CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
				})
			}
			return map[string]interface{}{
				"entries": items,
				"total":   resp.Total,
			}, nil
		}),
	}

	cmd.Flags().StringVar(&operationType, "operation-type", "", "filter by operation type")
	cmd.Flags().Int64Var(&roomID, "room-id", 0, "filter by room id")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 uses the server default)")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func newAdjustCmd(run runner) *cobra.Command {
	var (
		amount         string
		direction      string
		reason         string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "adjust <user_id>",
		Short: "Apply an admin adjustment (IN or OUT) to a user's available balance",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			userID, err := parseID("user_id", args[0])
			if err != nil {
				return nil, err
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return nil, errors.New("--amount must be a decimal string")
			}
			if reason == "" {
				return nil, errors.New("--reason is required")
			}
			key := idempotencyKey
			if key == "" {
				key = "admin-adjust-" + uuid.NewString()
			}

			resp, err := svc.Ledger.Adjust(ctx, &ledgerapp.AdjustRequest{
				UserID:    userID,
				Amount:    value,
				Direction: ledger.Direction(direction),
				Operation: ledger.Operation{
					OperationType:  AdjustmentOperationType,
					IdempotencyKey: key,
					Meta:           map[string]interface{}{"reason": reason, "source": "ledgerctl"},
				},
			})
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"log_id":          resp.LogID,
				"idempotency_key": key,
				"balance_before":  money.Format(resp.BalanceBefore),
				"balance_after":   money.Format(resp.BalanceAfter),
				"idempotent":      resp.Idempotent,
			}, nil
		}),
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount as a decimal string")
	cmd.Flags().StringVar(&direction, "direction", "", "IN or OUT")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in entry meta")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "reuse to make retries safe (generated if empty)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("direction")
	return cmd
}

func newStatusCmd(run runner, use, short, status string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, args []string, svc *Services) (interface{}, error) {
			userID, err := parseID("user_id", args[0])
			if err != nil {
				return nil, err
			}
			b, err := svc.Ledger.SetBudgetStatus(ctx, userID, status)
			if err != nil {
				return nil, err
			}
			return newBudgetView(b), nil
		}),
	}
}
