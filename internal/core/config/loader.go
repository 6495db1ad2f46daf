package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Node.URL == "" {
		cfg.Node.URL = "http://localhost:8545"
	}
	if cfg.Node.Timeout == 0 {
		cfg.Node.Timeout = domain.Duration(30 * time.Second)
	}
	if cfg.Contract.PollInterval == 0 {
		cfg.Contract.PollInterval = domain.Duration(time.Second)
	}
	if cfg.Contract.ConfirmTimeout == 0 {
		cfg.Contract.ConfirmTimeout = domain.Duration(2 * time.Minute)
	}
	if cfg.Relayer.URL == "" {
		cfg.Relayer.URL = "http://localhost:3100"
	}
}
