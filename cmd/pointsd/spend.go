package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/points-engine/logging"
	"github.com/warp/points-engine/rewards"
	"github.com/warp/points-engine/service"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store/memory"
)

// =============================================================================
// SPEND COMMAND
// =============================================================================

var spendCmd = &cobra.Command{
	Use:   "spend FILE POINTS",
	Short: "Spend points against a transaction feed",
	Long: `Read a CSV (payer,points,timestamp header) or JSON feed, spend POINTS
oldest first and print the remaining per-payer totals as a JSON object.`,
	Args: cobra.ExactArgs(2),
	RunE: runSpend,
}

func init() {
	rootCmd.AddCommand(spendCmd)
	spendCmd.Flags().String("mode", string(rewards.ConsumeResidual), "Partial consumption mode (residual, stale)")
	spendCmd.Flags().Bool("receipt", false, "Print the full receipt instead of the totals")
}

func runSpend(cmd *cobra.Command, args []string) error {
	path := args[0]
	points, err := source.ParsePoints(args[1])
	if err != nil {
		return fmt.Errorf("points %q: %w", args[1], err)
	}

	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := rewards.ParseConsumptionMode(modeFlag)
	if err != nil {
		return err
	}
	showReceipt, _ := cmd.Flags().GetBool("receipt")

	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	if level == "" {
		level = "warn"
	}
	if format == "" {
		format = logging.FormatConsole
	}
	logger, err := logging.New(level, format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	records, err := source.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	svc := service.New(memory.New(),
		service.WithEngine(&rewards.SpendEngine{Mode: mode}),
		service.WithLogger(logger),
	)
	result, err := svc.SpendRecords(context.Background(), records, points)
	if err != nil {
		return spendError(cmd, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if showReceipt {
		enc.SetIndent("", "  ")
		return enc.Encode(result.Receipt)
	}
	return enc.Encode(result.Receipt.Totals)
}

// spendError turns engine errors into messages for the terminal.
func spendError(cmd *cobra.Command, err error) error {
	out := cmd.ErrOrStderr()
	var short *rewards.InsufficientPointsError
	switch {
	case errors.As(err, &short):
		fmt.Fprintf(out, "not enough points: requested %d, only %d available\n",
			short.Requested, short.Spent)
	case errors.Is(err, rewards.ErrNegativeAmount):
		fmt.Fprintln(out, "points to spend must not be negative")
	case errors.Is(err, rewards.ErrPointsOutOfRange):
		fmt.Fprintf(out, "points to spend must be at most %d\n", rewards.MaxPoints)
	default:
		return err
	}
	return reportedError{err}
}
