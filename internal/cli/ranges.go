package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dtrann/healthseal/internal/infra/chain"
	"github.com/dtrann/healthseal/internal/infra/rpc"
)

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "Show the public reference ranges stored in the contract",
	Run:   runRanges,
}

func init() {
	rootCmd.AddCommand(rangesCmd)
}

func runRanges(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	client := rpc.NewClient(cfg.Node)
	defer func() {
		_ = client.Close()
	}()
	contract := chain.NewContract(client, cfg.Contract)

	ranges, err := contract.MetricRanges(context.Background())
	if err != nil {
		slog.Error("Failed to query metric ranges", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CODE\tMIN\tMAX\tUNIT\tDESCRIPTION")
	for _, r := range ranges {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", r.ID, r.Min, r.Max, r.Unit, r.Description)
	}
	_ = w.Flush()
}
