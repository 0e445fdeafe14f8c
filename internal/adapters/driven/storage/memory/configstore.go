package memory

import (
	"sync"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory implementation of driven.ConfigStore for testing.
type ConfigStore struct {
	mu  sync.RWMutex
	cfg domain.AppConfig
}

// NewConfigStore creates a config store holding cfg.
func NewConfigStore(cfg domain.AppConfig) *ConfigStore {
	return &ConfigStore{cfg: cfg}
}

// Load returns a copy of the configuration.
func (s *ConfigStore) Load() (*domain.AppConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	return &cfg, nil
}

// Save replaces the configuration.
func (s *ConfigStore) Save(cfg *domain.AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = *cfg
	return nil
}

// Path returns an empty string; the configuration is not persisted.
func (s *ConfigStore) Path() string {
	return ""
}
