package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for node calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        15 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	// Fatal JSON-RPC codes: -32700 parse, -32600 invalid request,
	// -32601 method not found, -32602 invalid params.
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case -32700, -32600, -32601, -32602:
			return ActionFatal
		}
		if strings.Contains(strings.ToLower(rpcErr.Message), "execution reverted") {
			return ActionFatal
		}
		if strings.Contains(strings.ToLower(rpcErr.Message), "revert") {
			return ActionFatal
		}
	}

	sLower := strings.ToLower(err.Error())
	if strings.Contains(sLower, "execution reverted") {
		return ActionFatal
	}
	if strings.Contains(sLower, "insufficient funds") ||
		strings.Contains(sLower, "nonce too low") {
		return ActionFatal
	}

	// Network, 5xx, throttle: retry
	return ActionRetry
}

// CallWithRetry executes a JSON-RPC call with exponential backoff.
// Fatal errors (malformed requests, reverts) stop immediately.
func (c *Client) CallWithRetry(
	ctx context.Context,
	config RetryConfig,
	method string,
	params ...any,
) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := c.Call(ctx, method, params...)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ClassifyError(err) == ActionFatal {
			return nil, err // Stop immediately, do not retry
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
