package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtrann/healthseal/internal/control"
	"github.com/dtrann/healthseal/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check [metric_code] [value]",
	Short: "Check one metric value against its reference range",
	Long:  `Check encrypts the given value, submits it to the contract, waits for confirmation, and reveals the classification (normal, low, or high). The plaintext value never reaches the chain.`,
	Args:  cobra.ExactArgs(2),
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	code, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Printf("Invalid metric code: %v\n", err)
		os.Exit(1)
	}
	id := domain.MetricID(code)

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(shutdownCtx)
	}()

	def, err := app.Registry().Get(id)
	if err != nil {
		fmt.Printf("Unknown metric code %d (valid codes are 0-%d)\n", code, app.Registry().Len()-1)
		os.Exit(1)
	}

	ctx := context.Background()

	deployed, err := app.Contract().IsDeployed(ctx)
	if err != nil {
		slog.Error("Deployment probe failed", "error", err)
		os.Exit(1)
	}
	if !deployed {
		slog.Error("Contract not deployed on this chain", "address", app.Contract().Address())
		os.Exit(1)
	}

	fmt.Printf("Checking %s = %s %s...\n", def.Name, args[1], def.Unit)

	slot, err := app.Controller().SubmitCheck(ctx, id, args[1])
	if err != nil {
		slog.Error("Check failed", "metric", id, "error", err)
		os.Exit(1)
	}
	if !slot.Checked {
		fmt.Printf("Value %q was rejected; nothing was submitted.\n", args[1])
		os.Exit(1)
	}
	fmt.Printf("Confirmed in tx %s\n", slot.LastTx)

	status, err := app.Controller().RevealStatus(ctx, id)
	if err != nil {
		slog.Error("Reveal failed", "metric", id, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Result: %s is %s (range %d-%d %s)\n", def.Name, status, def.Min, def.Max, def.Unit)
}
