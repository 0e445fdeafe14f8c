package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionFile is the session file name in the data directory.
const SessionFile = "session.json"

// SessionStore keeps the active session in a JSON file readable only by
// the current user.
type SessionStore struct {
	mu       sync.Mutex
	filePath string
}

// NewSessionStore creates a session store in dataDir.
func NewSessionStore(dataDir string) (*SessionStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, err
	}
	return &SessionStore{filePath: filepath.Join(dataDir, SessionFile)}, nil
}

// Path returns the session file path.
func (s *SessionStore) Path() string {
	return s.filePath
}

// Load returns the stored session or domain.ErrNotLoggedIn.
func (s *SessionStore) Load() (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	return domain.ParseSession(string(data))
}

// Save replaces the stored session.
func (s *SessionStore) Save(session *domain.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.filePath, []byte(session.String()), 0600)
}

// Clear removes the stored session.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
