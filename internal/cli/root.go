package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// AdjustmentOperationType ledgerctl adjustのoperationType
const AdjustmentOperationType = "ADMIN_ADJUSTMENT"

// NewRootCommand ledgerctlのルートコマンドを作成
func NewRootCommand(connect Connector) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Admin CLI for the room ledger",
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "overall command timeout")

	run := func(fn func(ctx context.Context, args []string, svc *Services) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			svc, closeFn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			out, err := fn(ctx, args, svc)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		}
	}

	root.AddCommand(
		newBalanceCmd(run),
		newEntriesCmd(run),
		newAdjustCmd(run),
		newStatusCmd(run, "freeze", "Freeze a budget so it rejects mutations", "frozen"),
		newStatusCmd(run, "unfreeze", "Reactivate a frozen budget", "active"),
		newSettleCmd(run),
		newCancelCmd(run),
		newKickCmd(run),
		newMigrateCmd(run),
	)

	return root
}

type runner func(fn func(ctx context.Context, args []string, svc *Services) (interface{}, error)) func(*cobra.Command, []string) error

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %q", name, raw)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
