package driven

import "github.com/custodia-labs/usermgr/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files).
type ConfigStore interface {
	// Load reads configuration from storage.
	Load() (*domain.AppConfig, error)

	// Save persists the configuration to storage.
	Save(cfg *domain.AppConfig) error

	// Path returns the configuration file path.
	Path() string
}

// SessionStore persists the active session between invocations.
type SessionStore interface {
	// Load returns the stored session or domain.ErrNotLoggedIn.
	Load() (*domain.Session, error)

	// Save replaces the stored session.
	Save(session *domain.Session) error

	// Clear removes the stored session.
	Clear() error
}
