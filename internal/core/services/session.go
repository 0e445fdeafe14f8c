package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// MinimumCoreVersion is the oldest remote core version usermgr supports.
const MinimumCoreVersion = "4.7.0"

// localDevelopmentVersion is reported by development builds of the remote instance.
const localDevelopmentVersion = "4.11.0-local-development"

// SessionService establishes sessions and keeps the active one.
type SessionService struct {
	auth  driven.Authenticator
	store driven.SessionStore
}

// NewSessionService creates a session service. store may be nil when
// sessions are not persisted.
func NewSessionService(auth driven.Authenticator, store driven.SessionStore) *SessionService {
	return &SessionService{auth: auth, store: store}
}

// CreateSession logs in, then checks the user's facility, role and the
// remote core version.
func (s *SessionService) CreateSession(ctx context.Context, authInfo domain.AuthenticationInfo, username, password string) (*domain.Session, error) {
	logger.Debug("Logging in to %s as %s", authInfo.Domain, username)
	token, err := s.auth.Login(ctx, authInfo, username, password)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.ErrAuthentication
	}

	settings, err := s.auth.GetUserSettings(ctx, authInfo, token, username)
	if err != nil {
		return nil, fmt.Errorf("get user settings: %w", err)
	}
	if settings.FacilityID == "" {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNoFacility, username)
	}

	session := domain.NewSession(authInfo, username, token, settings.FacilityID, settings.Roles, "")
	if !session.IsAdmin() && !session.HasRole(domain.RoleUserManager) {
		return nil, fmt.Errorf("User %s %w", username, domain.ErrMissingRole)
	}

	version, err := s.auth.GetCoreVersion(ctx, authInfo, token)
	if err != nil {
		return nil, fmt.Errorf("get core version: %w", err)
	}
	if err := CheckCoreVersion(version); err != nil {
		return nil, err
	}
	session.CoreVersion = version

	logger.Info("Logged in to %s (core %s) as %s", authInfo.Domain, version, username)
	return session, nil
}

// Login creates a session and stores it.
func (s *SessionService) Login(ctx context.Context, authInfo domain.AuthenticationInfo, username, password string) (*domain.Session, error) {
	session, err := s.CreateSession(ctx, authInfo, username, password)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Save(session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return session, nil
}

// Current returns the stored session.
func (s *SessionService) Current() (*domain.Session, error) {
	if s.store == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return s.store.Load()
}

// Logout removes the stored session.
func (s *SessionService) Logout() error {
	if s.store == nil {
		return nil
	}
	return s.store.Clear()
}

// CheckCoreVersion rejects remote versions older than MinimumCoreVersion.
// Local development builds are always accepted.
func CheckCoreVersion(version string) error {
	if version == localDevelopmentVersion {
		return nil
	}
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return fmt.Errorf("%w: CHT Core Version must be %s or higher, got unparseable %q",
			domain.ErrVersionIncompatible, MinimumCoreVersion, version)
	}
	if v.LessThan(semver.MustParse(MinimumCoreVersion)) {
		return fmt.Errorf("%w: CHT Core Version must be %s or higher, got %s",
			domain.ErrVersionIncompatible, MinimumCoreVersion, version)
	}
	return nil
}
