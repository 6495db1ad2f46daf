// Package fhe is the client for the external FHE relayer service. The
// relayer is a black box: it encrypts plaintext inputs into ciphertext
// handles, issues decryption signatures, and decrypts handles for a
// holder of a valid signature. Nothing cryptographic happens locally.
package fhe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dtrann/healthseal/internal/core/domain"
	"github.com/dtrann/healthseal/internal/infra/chain/abi"
	"github.com/dtrann/healthseal/internal/metrics"
)

// Config holds relayer connection settings.
type Config struct {
	URL           string          `yaml:"url"`
	Timeout       domain.Duration `yaml:"timeout"`
	SignatureDays int64           `yaml:"signature_days"`
}

// Client talks to the FHE relayer over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	signatureDays int64
}

// NewClient creates a relayer client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout.Std()
	if timeout == 0 {
		timeout = 60 * time.Second // encryption proofs are slow
	}
	days := cfg.SignatureDays
	if days == 0 {
		days = 10
	}
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		signatureDays: days,
	}
}

// SignatureDays returns the validity window requested for new
// decryption signatures.
func (c *Client) SignatureDays() int64 {
	return c.signatureDays
}

// Encrypt asks the relayer to encrypt a plaintext value bound to
// (contract, user), returning the ciphertext handle and input proof.
func (c *Client) Encrypt(ctx context.Context, contract, user string, value uint64) (domain.EncryptedInput, error) {
	var out domain.EncryptedInput

	req := map[string]any{
		"contract": contract,
		"user":     user,
		"value":    value,
	}
	var resp struct {
		Handle string `json:"handle"`
		Proof  string `json:"proof"`
	}
	if err := c.post(ctx, "encrypt", "/v1/encrypt", req, &resp); err != nil {
		return out, err
	}

	handleBytes, err := abi.DecodeHex(resp.Handle)
	if err != nil || len(handleBytes) != 32 {
		return out, fmt.Errorf("relayer returned malformed handle %q", resp.Handle)
	}
	copy(out.Handle[:], handleBytes)

	out.Proof, err = abi.DecodeHex(resp.Proof)
	if err != nil {
		return out, fmt.Errorf("relayer returned malformed proof: %w", err)
	}
	return out, nil
}

// IssueSignature asks the relayer to issue a decryption signature for
// (user, contract), valid from now for the configured window.
func (c *Client) IssueSignature(ctx context.Context, user, contract string) (*domain.DecryptionSignature, error) {
	req := map[string]any{
		"user":          user,
		"contract":      contract,
		"duration_days": c.signatureDays,
	}
	var sig domain.DecryptionSignature
	if err := c.post(ctx, "signature", "/v1/signature", req, &sig); err != nil {
		return nil, err
	}
	if sig.Signature == "" || sig.PublicKey == "" {
		return nil, fmt.Errorf("relayer returned incomplete signature artifact")
	}
	sig.User = user
	sig.Contract = contract
	return &sig, nil
}

// UserDecrypt decrypts the given handles with a valid decryption
// signature. Results come back in handle order.
func (c *Client) UserDecrypt(ctx context.Context, sig *domain.DecryptionSignature, handles []domain.Handle) ([]uint64, error) {
	hexHandles := make([]string, 0, len(handles))
	for _, h := range handles {
		hexHandles = append(hexHandles, fmt.Sprintf("0x%x", h[:]))
	}

	req := map[string]any{
		"handles":         hexHandles,
		"contract":        sig.Contract,
		"user":            sig.User,
		"public_key":      sig.PublicKey,
		"private_key":     sig.PrivateKey,
		"signature":       sig.Signature,
		"start_timestamp": sig.StartTimestamp,
		"duration_days":   sig.DurationDays,
	}
	var resp struct {
		Values []uint64 `json:"values"`
	}
	if err := c.post(ctx, "decrypt", "/v1/decrypt", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Values) != len(handles) {
		return nil, fmt.Errorf("relayer returned %d values for %d handles", len(resp.Values), len(handles))
	}
	return resp.Values, nil
}

// Ping checks relayer reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relayer unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relayer unhealthy: http %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		metrics.RelayerCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		metrics.RelayerCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RelayerCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("relayer %s call: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RelayerCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RelayerCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("relayer %s: http %d: %s", op, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		metrics.RelayerCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("parse %s response: %w", op, err)
	}

	metrics.RelayerCallsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}
