package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtrann/healthseal/internal/core/config"
)

// fakeNode answers eth_getCode with deployed bytecode and everything
// else with a zero quantity.
func fakeNode(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		result := "0x0"
		if req.Method == "eth_getCode" {
			result = "0x6080604052"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, nodeURL string) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{}
	cfg.Server.Port = 0
	cfg.Node.URL = nodeURL
	cfg.Contract.Address = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	cfg.Contract.Account = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	cfg.Relayer.URL = "http://localhost:3100"
	cfg.SignatureCache.Path = filepath.Join(t.TempDir(), "sigs.json")
	return cfg
}

func TestApp_Lifecycle(t *testing.T) {
	node := fakeNode(t)
	app, err := NewApp(testConfig(t, node.URL))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if app.Controller() == nil {
		t.Fatal("controller not wired")
	}
	if app.registry.Len() != 5 {
		t.Errorf("expected 5 registered metrics, got %d", app.registry.Len())
	}
	if app.db != nil {
		t.Error("expected no database without a configured URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Deployment probe saw bytecode at the contract address, so the
	// workflow routes are open.
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, req)
	var report struct {
		Deployed bool `json:"contract_deployed"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &report)
	if !report.Deployed {
		t.Errorf("expected deployment gate open, got %s", rec.Body.String())
	}

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestApp_StartWithUnreachableNode(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Node.Timeout = 1 // effectively immediate

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The probe fails but startup must not.
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
