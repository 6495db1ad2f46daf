package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dtrann/healthseal/internal/infra/storage/postgres"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent checks from the database",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if cfg.Database.URL == "" {
		fmt.Println("No database configured; check history is kept in memory only while serving.")
		return
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	recs, err := postgres.NewCheckRepo(db).Recent(ctx, historyLimit)
	if err != nil {
		slog.Error("Failed to query check history", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tMETRIC\tSTATUS\tTX")
	for _, rec := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.MetricID, rec.Status, rec.TxHash)
	}
	_ = w.Flush()
}
