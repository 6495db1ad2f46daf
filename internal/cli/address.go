package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dtrann/healthseal/internal/infra/chain"
	"github.com/dtrann/healthseal/internal/infra/rpc"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the configured contract address and whether it is deployed",
	Run:   runAddress,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func runAddress(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	client := rpc.NewClient(cfg.Node)
	defer func() {
		_ = client.Close()
	}()
	contract := chain.NewContract(client, cfg.Contract)

	fmt.Printf("Contract: %s\n", contract.Address())

	deployed, err := contract.IsDeployed(context.Background())
	if err != nil {
		slog.Error("Deployment probe failed", "error", err)
		os.Exit(1)
	}
	if deployed {
		fmt.Println("Deployed:  yes")
	} else {
		fmt.Println("Deployed:  no")
	}
}
