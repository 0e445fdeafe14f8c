package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// ConfigFile is the configuration file name in the data directory.
	ConfigFile = "config.toml"

	// DataDirEnv overrides the default data directory.
	DataDirEnv = "USERMGR_DATA_DIR"

	appName = "usermgr"
)

// DataDir resolves the data directory: override when set, then the
// USERMGR_DATA_DIR environment variable, then $XDG_DATA_HOME/usermgr.
func DataDir(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(DataDirEnv); env != "" {
		return env
	}
	return filepath.Join(xdg.DataHome, appName)
}

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// A missing file loads as the default configuration.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a new TOML-based config store in dataDir.
func NewConfigStore(dataDir string) (*ConfigStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{filePath: filepath.Join(dataDir, ConfigFile)}, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() (*domain.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg domain.AppConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, s.filePath, err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", s.filePath, err)
	}
	return &cfg, nil
}

// Save writes the configuration to the TOML file.
func (s *ConfigStore) Save(cfg *domain.AppConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// validateConfig rejects contact types that cannot be staged.
func validateConfig(cfg *domain.AppConfig) error {
	seen := make(map[string]bool, len(cfg.ContactTypes))
	for _, ct := range cfg.ContactTypes {
		if ct.Name == "" {
			return fmt.Errorf("%w: contact type without a name", domain.ErrInvalidInput)
		}
		if seen[ct.Name] {
			return fmt.Errorf("%w: duplicate contact type %q", domain.ErrInvalidInput, ct.Name)
		}
		seen[ct.Name] = true
		if _, ok := ct.ParentLevel(); !ok && len(ct.Hierarchy) > 0 {
			return fmt.Errorf("%w: contact type %q has no level 1 parent", domain.ErrInvalidInput, ct.Name)
		}
	}
	return nil
}
