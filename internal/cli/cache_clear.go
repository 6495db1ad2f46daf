package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dtrann/healthseal/internal/infra/sigcache"
)

var cacheClearCmd = &cobra.Command{
	Use:   "cache-clear",
	Short: "Clear all cached decryption signatures",
	Long:  `Cached decryption signatures are bound to a (user, contract) pair. Clear the cache after redeploying the contract or switching accounts; stale signatures would be rejected by the relayer anyway.`,
	Run:   runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	store, err := sigcache.Open(cfg.SignatureCache)
	if err != nil {
		slog.Error("Failed to open signature cache", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	if err := store.Clear(context.Background()); err != nil {
		slog.Error("Failed to clear signature cache", "error", err)
		os.Exit(1)
	}
	fmt.Println("Signature cache cleared.")
}
