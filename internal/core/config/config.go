package config

import (
	"github.com/dtrann/healthseal/internal/infra/chain"
	"github.com/dtrann/healthseal/internal/infra/fhe"
	"github.com/dtrann/healthseal/internal/infra/rpc"
	"github.com/dtrann/healthseal/internal/infra/sigcache"
	"github.com/dtrann/healthseal/internal/infra/storage/postgres"
	"github.com/dtrann/healthseal/internal/server"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server         server.Config   `yaml:"server"`
	Node           rpc.Config      `yaml:"node"`
	Contract       chain.Config    `yaml:"contract"`
	Relayer        fhe.Config      `yaml:"relayer"`
	SignatureCache sigcache.Config `yaml:"signature_cache"`
	Database       postgres.Config `yaml:"database"`
	Logging        LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
