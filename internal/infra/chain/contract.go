// Package chain binds the on-chain health-check contract: transaction
// submission, confirmation polling, and read-only queries over JSON-RPC.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtrann/healthseal/internal/core/domain"
	"github.com/dtrann/healthseal/internal/infra/chain/abi"
	"github.com/dtrann/healthseal/internal/infra/rpc"
)

// Config holds contract binding settings. Account is the node-managed
// demo account used as the transaction sender.
type Config struct {
	Address        string          `yaml:"address"`
	Account        string          `yaml:"account"`
	PollInterval   domain.Duration `yaml:"poll_interval"`
	ConfirmTimeout domain.Duration `yaml:"confirm_timeout"`
}

// MetricRange is one row of the contract's bounds table.
type MetricRange struct {
	ID          uint8
	Min         uint64
	Max         uint64
	Unit        string
	Description string
}

// Contract is the health-check contract binding.
type Contract struct {
	client *rpc.Client
	cfg    Config
	retry  rpc.RetryConfig
	log    *slog.Logger
}

// ErrNotConfirmed is returned when a submitted transaction reverted.
var ErrNotConfirmed = fmt.Errorf("transaction reverted")

// NewContract creates a binding for the deployed contract.
func NewContract(client *rpc.Client, cfg Config) *Contract {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = domain.Duration(time.Second)
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = domain.Duration(2 * time.Minute)
	}
	return &Contract{
		client: client,
		cfg:    cfg,
		retry:  rpc.DefaultRetryConfig,
		log:    slog.Default(),
	}
}

// Address returns the configured contract address.
func (c *Contract) Address() string {
	return c.cfg.Address
}

// IsDeployed probes eth_getCode at the configured address. Empty code
// means the contract is not deployed on this chain.
func (c *Contract) IsDeployed(ctx context.Context) (bool, error) {
	code, err := c.client.CallString(ctx, "eth_getCode", c.cfg.Address, "latest")
	if err != nil {
		return false, fmt.Errorf("eth_getCode failed: %w", err)
	}
	return code != "" && code != "0x", nil
}

// SubmitCheck submits an encrypted metric value with its input proof.
// Returns the transaction hash; confirmation is a separate step.
func (c *Contract) SubmitCheck(ctx context.Context, id domain.MetricID, input domain.EncryptedInput) (string, error) {
	data := abi.PackHex("submitCheck(uint8,bytes32,bytes)",
		abi.Uint64Arg(uint64(id)),
		abi.Bytes32Arg(input.Handle),
		abi.BytesArg(input.Proof),
	)

	tx := map[string]any{
		"from": c.cfg.Account,
		"to":   c.cfg.Address,
		"data": data,
	}

	hash, err := c.client.CallString(ctx, "eth_sendTransaction", tx)
	if err != nil {
		return "", fmt.Errorf("eth_sendTransaction failed: %w", err)
	}
	c.log.Debug("check transaction submitted", "metric", id, "tx", hash)
	return hash, nil
}

// WaitMined blocks until the transaction is mined or the confirmation
// timeout elapses. A mined receipt with status 0x0 is a failure.
func (c *Contract) WaitMined(ctx context.Context, txHash string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout.Std())
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval.Std())
	defer ticker.Stop()

	for {
		raw, err := c.client.Call(ctx, "eth_getTransactionReceipt", txHash)
		if err != nil {
			if rpc.ClassifyError(err) == rpc.ActionFatal {
				return fmt.Errorf("receipt query failed: %w", err)
			}
			c.log.Debug("receipt poll failed, retrying", "tx", txHash, "error", err)
		} else if receipt := parseReceipt(raw); receipt != nil {
			if receipt.Status == "0x0" {
				return fmt.Errorf("%w: %s", ErrNotConfirmed, txHash)
			}
			c.log.Debug("transaction confirmed", "tx", txHash, "block", receipt.BlockNumber)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out for %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

type receipt struct {
	Status      string `json:"status"`
	BlockNumber string `json:"blockNumber"`
}

func parseReceipt(raw json.RawMessage) *receipt {
	if len(raw) == 0 || string(raw) == "null" {
		return nil // Pending
	}
	var r receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return &r
}

// ResultHandle fetches the encrypted result handle for a metric via
// eth_call. A zero handle means no result is stored yet.
func (c *Contract) ResultHandle(ctx context.Context, id domain.MetricID) (domain.Handle, error) {
	var h domain.Handle

	call := map[string]any{
		"to":   c.cfg.Address,
		"data": abi.PackHex("resultOf(uint8)", abi.Uint64Arg(uint64(id))),
	}
	raw, err := c.client.CallWithRetry(ctx, c.retry, "eth_call", call, "latest")
	if err != nil {
		return h, fmt.Errorf("resultOf(%d) failed: %w", id, err)
	}

	var hexData string
	if err := json.Unmarshal(raw, &hexData); err != nil {
		return h, fmt.Errorf("resultOf(%d): unexpected result: %w", id, err)
	}
	d, err := abi.NewDecoder(hexData)
	if err != nil {
		return h, fmt.Errorf("resultOf(%d): %w", id, err)
	}
	w, err := d.WordAt(0)
	if err != nil {
		return h, fmt.Errorf("resultOf(%d): %w", id, err)
	}
	return domain.Handle(w), nil
}

// MetricRanges fetches the contract's bounds table: parallel arrays of
// metric id, min, max, unit, and description.
func (c *Contract) MetricRanges(ctx context.Context) ([]MetricRange, error) {
	call := map[string]any{
		"to":   c.cfg.Address,
		"data": abi.PackHex("metricRanges()"),
	}
	raw, err := c.client.CallWithRetry(ctx, c.retry, "eth_call", call, "latest")
	if err != nil {
		return nil, fmt.Errorf("metricRanges failed: %w", err)
	}

	var hexData string
	if err := json.Unmarshal(raw, &hexData); err != nil {
		return nil, fmt.Errorf("metricRanges: unexpected result: %w", err)
	}
	d, err := abi.NewDecoder(hexData)
	if err != nil {
		return nil, fmt.Errorf("metricRanges: %w", err)
	}

	ids, err := d.UintArrayAt(0)
	if err != nil {
		return nil, fmt.Errorf("metricRanges ids: %w", err)
	}
	mins, err := d.UintArrayAt(1)
	if err != nil {
		return nil, fmt.Errorf("metricRanges mins: %w", err)
	}
	maxs, err := d.UintArrayAt(2)
	if err != nil {
		return nil, fmt.Errorf("metricRanges maxs: %w", err)
	}
	units, err := d.StringArrayAt(3)
	if err != nil {
		return nil, fmt.Errorf("metricRanges units: %w", err)
	}
	descs, err := d.StringArrayAt(4)
	if err != nil {
		return nil, fmt.Errorf("metricRanges descriptions: %w", err)
	}

	n := len(ids)
	if len(mins) != n || len(maxs) != n || len(units) != n || len(descs) != n {
		return nil, fmt.Errorf("metricRanges: mismatched array lengths")
	}

	out := make([]MetricRange, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MetricRange{
			ID:          uint8(ids[i]),
			Min:         mins[i],
			Max:         maxs[i],
			Unit:        units[i],
			Description: descs[i],
		})
	}
	return out, nil
}
