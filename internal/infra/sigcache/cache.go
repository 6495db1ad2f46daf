// Package sigcache persists decryption signatures keyed by
// (user address, contract address) so a valid capability is reused
// across sessions instead of re-issued on every reveal.
package sigcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// Config holds signature cache settings. When RedisURL is set the
// Redis backend is used, otherwise a JSON file under Path.
type Config struct {
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
}

// Store is a persisted decryption-signature cache.
type Store interface {
	// Get returns the cached signature for (user, contract), or nil on miss.
	Get(ctx context.Context, user, contract string) (*domain.DecryptionSignature, error)
	// Put stores a signature under its (user, contract) binding.
	Put(ctx context.Context, sig *domain.DecryptionSignature) error
	// Clear removes all cached signatures.
	Clear(ctx context.Context) error
	Close() error
}

func cacheKey(user, contract string) string {
	return strings.ToLower(user) + ":" + strings.ToLower(contract)
}

// FileStore keeps signatures in a single JSON file on disk.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]*domain.DecryptionSignature
	loaded  bool
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:    path,
		entries: make(map[string]*domain.DecryptionSignature),
	}
}

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read signature cache: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		// A corrupt cache is not fatal; start fresh.
		s.entries = make(map[string]*domain.DecryptionSignature)
	}
	return nil
}

func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signature cache: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write signature cache: %w", err)
	}
	return nil
}

// Get returns the cached signature, or nil on miss.
func (s *FileStore) Get(ctx context.Context, user, contract string) (*domain.DecryptionSignature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.entries[cacheKey(user, contract)], nil
}

// Put stores a signature and persists the cache file.
func (s *FileStore) Put(ctx context.Context, sig *domain.DecryptionSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	s.entries[cacheKey(sig.User, sig.Contract)] = sig
	return s.persist()
}

// Clear removes all entries and the cache file.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*domain.DecryptionSignature)
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove signature cache: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
