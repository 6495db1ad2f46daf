// Package control wires the application together: external sessions,
// storage, the workflow controller, and the HTTP server.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dtrann/healthseal/internal/core/config"
	"github.com/dtrann/healthseal/internal/core/registry"
	"github.com/dtrann/healthseal/internal/core/status"
	"github.com/dtrann/healthseal/internal/core/workflow"
	"github.com/dtrann/healthseal/internal/infra/chain"
	"github.com/dtrann/healthseal/internal/infra/fhe"
	"github.com/dtrann/healthseal/internal/infra/rpc"
	"github.com/dtrann/healthseal/internal/infra/sigcache"
	"github.com/dtrann/healthseal/internal/infra/storage"
	"github.com/dtrann/healthseal/internal/infra/storage/memory"
	"github.com/dtrann/healthseal/internal/infra/storage/postgres"
	"github.com/dtrann/healthseal/internal/server"
)

// App is the main application struct that manages the service lifecycle.
type App struct {
	cfg        *config.AppConfig
	node       *rpc.Client
	relayer    *fhe.Client
	contract   *chain.Contract
	sigs       sigcache.Store
	db         *postgres.DB
	registry   *registry.Registry
	controller *workflow.Controller
	server     *server.Server
	log        *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	// 1. Initialize storage
	var history storage.CheckRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate("migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		history = postgres.NewCheckRepo(db)
		slog.Info("Using PostgreSQL check history")
	} else {
		history = memory.NewCheckRepo()
		slog.Info("Using in-memory check history")
	}

	// 2. Initialize external sessions
	node := rpc.NewClient(cfg.Node)
	relayer := fhe.NewClient(cfg.Relayer)
	contract := chain.NewContract(node, cfg.Contract)

	// 3. Initialize the decryption-signature cache
	sigs, err := sigcache.Open(cfg.SignatureCache)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature cache: %w", err)
	}

	// 4. Initialize the workflow controller
	reg := registry.Default()
	controller := workflow.New(
		workflow.Config{User: cfg.Contract.Account},
		reg,
		status.NewStore(),
		relayer,
		contract,
		sigs,
		history,
	)

	// 5. Initialize the HTTP server
	srv := server.New(cfg.Server, server.Deps{
		Registry:   reg,
		Controller: controller,
		History:    history,
		NodeHealth: func(ctx context.Context) error {
			_, err := node.Call(ctx, "eth_blockNumber")
			return err
		},
		RelayerHealth: relayer.Ping,
	})

	return &App{
		cfg:        cfg,
		node:       node,
		relayer:    relayer,
		contract:   contract,
		sigs:       sigs,
		db:         db,
		registry:   reg,
		controller: controller,
		server:     srv,
		log:        slog.Default(),
	}, nil
}

// Controller returns the workflow controller.
func (a *App) Controller() *workflow.Controller {
	return a.controller
}

// Registry returns the metric registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Contract returns the contract binding.
func (a *App) Contract() *chain.Contract {
	return a.contract
}

// SignatureCache returns the decryption-signature cache.
func (a *App) SignatureCache() sigcache.Store {
	return a.sigs
}

// Start probes the contract deployment and starts the HTTP server.
func (a *App) Start(ctx context.Context) error {
	deployed, err := a.contract.IsDeployed(ctx)
	switch {
	case err != nil:
		a.log.Warn("Deployment probe failed, workflow routes disabled", "error", err)
	case !deployed:
		a.log.Warn("Contract not deployed on this chain", "address", a.contract.Address())
	default:
		a.server.SetDeployed(true)
		a.log.Info("Contract deployed", "address", a.contract.Address())
	}

	go func() {
		if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()
	a.log.Info("Server started", "port", a.cfg.Server.Port)

	return nil
}

// Stop shuts the application down.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	if err := a.sigs.Close(); err != nil {
		a.log.Warn("Failed to close signature cache", "error", err)
	}
	if err := a.relayer.Close(); err != nil {
		a.log.Warn("Failed to close relayer client", "error", err)
	}
	if err := a.node.Close(); err != nil {
		a.log.Warn("Failed to close node client", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.server.Stop(ctx)
}
