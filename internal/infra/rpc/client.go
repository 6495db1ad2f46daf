package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtrann/healthseal/internal/core/domain"
	"github.com/dtrann/healthseal/internal/metrics"
)

// Config holds the chain node connection settings.
type Config struct {
	URL     string          `yaml:"url"`
	Timeout domain.Duration `yaml:"timeout"`
}

// Client is a JSON-RPC 2.0 client for the EVM node.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu           sync.RWMutex
	totalLatency time.Duration
	successCount int
	failureCount int
}

// Error is a JSON-RPC error response from the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewClient creates a JSON-RPC client for the given node endpoint.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout.Std()
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Call makes a single JSON-RPC call and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()

	if params == nil {
		params = []any{}
	}
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      uuid.NewString(),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		c.recordFailure(method, "marshal")
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		c.recordFailure(method, "request")
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(method, "transport")
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	// Rate limit / block detection
	if resp.StatusCode == 429 {
		c.recordFailure(method, "throttled")
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode == 403 {
		c.recordFailure(method, "blocked")
		return nil, fmt.Errorf("ip blocked (403)")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(method, "read")
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.recordFailure(method, "http")
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.recordFailure(method, "parse")
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		c.recordFailure(method, "rpc")
		return nil, rpcResp.Error
	}

	c.recordSuccess(method, time.Since(start))
	return rpcResp.Result, nil
}

// CallString calls a method whose result is a JSON string (the common
// case for eth_* hex-quantity and hex-data responses).
func (c *Client) CallString(ctx context.Context, method string, params ...any) (string, error) {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: expected string result: %w", method, err)
	}
	return s, nil
}

// ErrorRate returns the observed failure ratio since startup.
func (c *Client) ErrorRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.successCount + c.failureCount
	if total == 0 {
		return 0
	}
	return float64(c.failureCount) / float64(total)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) recordSuccess(method string, latency time.Duration) {
	c.mu.Lock()
	c.successCount++
	c.totalLatency += latency
	c.mu.Unlock()

	metrics.RPCCallsTotal.WithLabelValues(method).Inc()
	metrics.RPCLatency.WithLabelValues(method).Observe(latency.Seconds())
}

func (c *Client) recordFailure(method, errType string) {
	c.mu.Lock()
	c.failureCount++
	c.mu.Unlock()

	metrics.RPCCallsTotal.WithLabelValues(method).Inc()
	metrics.RPCErrorsTotal.WithLabelValues(method, errType).Inc()
}
